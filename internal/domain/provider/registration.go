package provider

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
)

// Registration is the secondary per-provider entry holding tax
// registration details, stored under "registration:<code>".
type Registration struct {
	Code              string `json:"code"`
	SSTRegistrationNo string `json:"sstRegistrationNo"`
	TaxpayerStatus    string `json:"taxpayerStatus"`
}

var registrationAliases = map[string]string{
	"sstRegNo":       "sstRegistrationNo",
	"taxPayerStatus": "taxpayerStatus",
	"providerCode":   "code",
}

// DecodeRegistration reads a raw registration entry, accepting the legacy
// field names.
func DecodeRegistration(raw map[string]any) Registration {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	for alias, canonical := range registrationAliases {
		if v, ok := m[alias]; ok {
			delete(m, alias)
			if isBlank(m[canonical]) {
				m[canonical] = v
			}
		}
	}
	var reg Registration
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       lenientHook,
		Result:           &reg,
	})
	if err == nil {
		_ = dec.Decode(m)
	}
	return reg
}

// MergeRegistration overlays reg onto rec. For sstReg and taxpayerStatus a
// non-empty registration value wins, otherwise the record keeps its own
// value. A nil reg leaves rec unchanged.
func MergeRegistration(rec ProviderRecord, reg *Registration) ProviderRecord {
	if reg == nil {
		return rec
	}
	if reg.SSTRegistrationNo != "" {
		rec.SSTReg = reg.SSTRegistrationNo
	}
	if reg.TaxpayerStatus != "" {
		rec.TaxpayerStatus = reg.TaxpayerStatus
	}
	return rec
}

type registrationCodec struct{}

func (registrationCodec) Encode(reg Registration) ([]byte, error) { return json.Marshal(reg) }

func (registrationCodec) Decode(data []byte) (Registration, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Registration{}, err
	}
	return DecodeRegistration(raw), nil
}

type recordCodec struct{}

func (recordCodec) Encode(rec ProviderRecord) ([]byte, error) { return json.Marshal(rec) }

// Decode runs every stored provider through Normalize, so callers only ever
// see the canonical shape.
func (recordCodec) Decode(data []byte) (ProviderRecord, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProviderRecord{}, err
	}
	return Normalize(raw), nil
}

// ToMap renders rec as a plain JSON object.
func ToMap(rec ProviderRecord) map[string]any {
	data, _ := json.Marshal(rec)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}
