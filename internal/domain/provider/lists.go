package provider

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Rendang96/MixCore-sub002/internal/core/listedit"
	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
)

// Row operations accepted by ApplyListOp.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpMove   = "move"
)

// ListOp is one row edit on a repeating field. Item is the new row for add
// and the partial row for update.
type ListOp struct {
	Op    string          `json:"op"`
	Index int             `json:"index"`
	To    int             `json:"to"`
	Item  json.RawMessage `json:"item,omitempty"`
}

type listBinding struct {
	add    func(r *ProviderRecord, item json.RawMessage) error
	update func(r *ProviderRecord, index int, patch json.RawMessage) error
	remove func(r *ProviderRecord, index int)
	move   func(r *ProviderRecord, from, to int)
}

func bindList[T any](get func(*ProviderRecord) *[]T) listBinding {
	return listBinding{
		add: func(r *ProviderRecord, raw json.RawMessage) error {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				return err
			}
			l := get(r)
			*l = listedit.Add(*l, item)
			return nil
		},
		update: func(r *ProviderRecord, index int, raw json.RawMessage) error {
			var perr error
			l := get(r)
			*l = listedit.UpdateAt(*l, index, func(cur T) T {
				// unmarshalling onto the current row only overwrites the
				// keys present in the patch
				merged := cur
				if err := json.Unmarshal(raw, &merged); err != nil {
					perr = err
					return cur
				}
				return merged
			})
			return perr
		},
		remove: func(r *ProviderRecord, index int) {
			l := get(r)
			*l = listedit.RemoveAt(*l, index)
		},
		move: func(r *ProviderRecord, from, to int) {
			l := get(r)
			*l = listedit.Move(*l, from, to)
		},
	}
}

var listFields = map[string]listBinding{
	"servicesProvided":        bindList(func(r *ProviderRecord) *[]string { return &r.ServicesProvided }),
	"consultationFees":        bindList(func(r *ProviderRecord) *[]ConsultationFee { return &r.ConsultationFees }),
	"illnessFees":             bindList(func(r *ProviderRecord) *[]IllnessFee { return &r.IllnessFees }),
	"selectedFacilities":      bindList(func(r *ProviderRecord) *[]Option { return &r.SelectedFacilities }),
	"drugList":                bindList(func(r *ProviderRecord) *[]Drug { return &r.DrugList }),
	"staffing":                bindList(func(r *ProviderRecord) *[]Staff { return &r.Staffing }),
	"doctors":                 bindList(func(r *ProviderRecord) *[]Doctor { return &r.Doctors }),
	"healthDoctors":           bindList(func(r *ProviderRecord) *[]Doctor { return &r.HealthDoctors }),
	"selectedExperiences":     bindList(func(r *ProviderRecord) *[]Option { return &r.SelectedExperiences }),
	"selectedSpecialists":     bindList(func(r *ProviderRecord) *[]Option { return &r.SelectedSpecialists }),
	"selectedLanguages":       bindList(func(r *ProviderRecord) *[]Option { return &r.SelectedLanguages }),
	"healthScreeningPackages": bindList(func(r *ProviderRecord) *[]HealthPackage { return &r.HealthScreeningPackages }),
	"promotionFiles":          bindList(func(r *ProviderRecord) *[]FileRef { return &r.PromotionFiles }),
	"documents":               bindList(func(r *ProviderRecord) *[]FileRef { return &r.Documents }),
	"discounts":               bindList(func(r *ProviderRecord) *[]Discount { return &r.Discounts }),
}

// ListFields returns the names of the repeating fields, sorted.
func ListFields() []string {
	names := make([]string, 0, len(listFields))
	for n := range listFields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ApplyListOp applies op to the repeating field named field of r. The
// legacy name "packages" is accepted for healthScreeningPackages.
func ApplyListOp(r *ProviderRecord, field string, op ListOp) error {
	if field == "packages" {
		field = "healthScreeningPackages"
	}
	b, ok := listFields[field]
	if !ok {
		return invalid(field, "is not a list field")
	}
	switch op.Op {
	case OpAdd:
		if len(op.Item) == 0 {
			return apperr.Required("item")
		}
		if err := b.add(r, op.Item); err != nil {
			return invalid("item", err.Error())
		}
	case OpUpdate:
		if len(op.Item) == 0 {
			return apperr.Required("item")
		}
		if err := b.update(r, op.Index, op.Item); err != nil {
			return invalid("item", err.Error())
		}
	case OpRemove:
		b.remove(r, op.Index)
	case OpMove:
		b.move(r, op.Index, op.To)
	default:
		return invalid("op", fmt.Sprintf("unknown operation %q", op.Op))
	}
	return nil
}

func invalid(field, msg string) error {
	return &apperr.ValidationError{Fields: []apperr.FieldError{{Field: field, Message: msg}}}
}
