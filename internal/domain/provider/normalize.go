package provider

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// legacyAliases maps old field names onto their canonical names. The alias
// is used only when the canonical field is missing or empty.
var legacyAliases = map[string]string{
	"providerCode": "code",
	"providerName": "name",
	"telNo":        "telNumber",
	"fax":          "faxNumber",
	"mobile":       "mobilePhone",
	"postCode":     "postcode",
	"gstRegNo":     "gstReg",
	"sstRegNo":     "sstReg",
	"tin":          "tinNo",
	"packages":     "healthScreeningPackages",
}

// nestedGroups are the object-valued fields that always exist after
// normalization.
var nestedGroups = []string{
	"status", "bankGuarantee", "contract", "operatingHours",
	"pmcareRepresentative", "radiographer", "paymentDetails",
}

// Normalize turns a raw, possibly legacy-shaped provider map into the
// canonical record. It never fails: values that cannot be used degrade to
// their zero value. Normalize(toMap(Normalize(x))) equals Normalize(x).
func Normalize(raw map[string]any) ProviderRecord {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}

	resolveAliases(m)
	normalizeGroups(m)
	deriveStaffing(m)

	var rec ProviderRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       lenientHook,
		Result:           &rec,
	})
	if err == nil {
		// Decode keeps every field it could convert; leftovers stay zero.
		_ = dec.Decode(m)
	}

	fillDefaults(&rec)
	return rec
}

func resolveAliases(m map[string]any) {
	for alias, canonical := range legacyAliases {
		v, ok := m[alias]
		if !ok {
			continue
		}
		delete(m, alias)
		if isBlank(m[canonical]) {
			m[canonical] = v
		}
	}
}

func normalizeGroups(m map[string]any) {
	for _, g := range nestedGroups {
		switch v := m[g].(type) {
		case map[string]any:
		case nil, []any:
			m[g] = map[string]any{}
		default:
			if g == "status" {
				m[g] = map[string]any{"status": v}
			} else {
				m[g] = map[string]any{}
			}
		}
	}
}

// deriveStaffing fills staffing from the legacy staffingList rows
// ({role, numberOfStaff}) when staffing itself is absent.
func deriveStaffing(m map[string]any) {
	legacy, hasLegacy := m["staffingList"]
	delete(m, "staffingList")
	if m["staffing"] != nil || !hasLegacy {
		return
	}
	rows, ok := legacy.([]any)
	if !ok {
		return
	}
	staffing := make([]any, 0, len(rows))
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		count := row["numberOfStaff"]
		if count == nil {
			count = row["count"]
		}
		staffing = append(staffing, map[string]any{"role": row["role"], "count": count})
	}
	m["staffing"] = staffing
}

var optionType = reflect.TypeOf(Option{})

// lenientHook replaces values whose shape cannot fit the target field with
// something that can, so one bad field never aborts the decode.
func lenientHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.String:
		switch from.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			return "", nil
		case reflect.Bool:
			return strconv.FormatBool(reflect.ValueOf(data).Bool()), nil
		}
	case reflect.Bool:
		switch from.Kind() {
		case reflect.String:
			return parseFlag(reflect.ValueOf(data).String()), nil
		case reflect.Map, reflect.Slice, reflect.Array:
			return false, nil
		}
	case reflect.Struct:
		if from.Kind() == reflect.String && to == optionType {
			// legacy selections stored as bare codes
			code := reflect.ValueOf(data).String()
			return map[string]any{"code": code, "name": code}, nil
		}
		if from.Kind() != reflect.Map {
			return map[string]any{}, nil
		}
	case reflect.Slice:
		if from.Kind() != reflect.Slice && from.Kind() != reflect.Array {
			return []any{}, nil
		}
	}
	return data, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

// fillDefaults applies the post-decode invariants: dropdown fields holding
// "" become unset and every list is non-nil.
func fillDefaults(r *ProviderRecord) {
	for _, p := range []**string{
		&r.ProviderType, &r.ProviderCategory, &r.PanelGroup,
		&r.Status.Status, &r.Contract.Renewal, &r.OperatingHours.Type,
		&r.PMCareRepresentative.Status, &r.PMCareRepresentative.Designation,
		&r.PaymentDetails.Bank, &r.PaymentDetails.PaymentMethodCode,
	} {
		if *p != nil && **p == "" {
			*p = nil
		}
	}

	nonNil(&r.ServicesProvided)
	nonNil(&r.ConsultationFees)
	nonNil(&r.IllnessFees)
	nonNil(&r.SelectedFacilities)
	nonNil(&r.DrugList)
	nonNil(&r.Staffing)
	nonNil(&r.Doctors)
	nonNil(&r.HealthDoctors)
	nonNil(&r.SelectedExperiences)
	nonNil(&r.SelectedSpecialists)
	nonNil(&r.SelectedLanguages)
	nonNil(&r.HealthScreeningPackages)
	nonNil(&r.PromotionFiles)
	nonNil(&r.Documents)
	nonNil(&r.Discounts)
}

func nonNil[T any](s *[]T) {
	if *s == nil {
		*s = []T{}
	}
}
