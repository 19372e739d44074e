// Package validation checks create-form payloads against JSON schemas and
// reports failures as apperr field errors.
package validation

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
)

type Schema struct {
	schema *gojsonschema.Schema
}

// Compile parses a JSON schema document.
func Compile(src string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(src string) *Schema {
	s, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc, which is any value encodable as JSON. The returned
// error is an *apperr.ValidationError listing each offending field once.
func (s *Schema) Validate(doc any) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	seen := make(map[string]bool)
	ve := &apperr.ValidationError{}
	for _, desc := range result.Errors() {
		field := fieldOf(desc)
		if seen[field] {
			continue
		}
		seen[field] = true
		msg := desc.Description()
		if desc.Type() == "required" || desc.Type() == "string_gte" || desc.Type() == "pattern" {
			msg = "is required"
		}
		ve.Fields = append(ve.Fields, apperr.FieldError{Field: field, Message: msg})
	}
	sort.Slice(ve.Fields, func(i, j int) bool { return ve.Fields[i].Field < ve.Fields[j].Field })
	return ve
}

func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" {
		prop, _ := desc.Details()["property"].(string)
		if field == "(root)" || field == "" {
			return prop
		}
		return field + "." + prop
	}
	return field
}
