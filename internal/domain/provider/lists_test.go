package provider

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
)

func TestApplyListOp_AddUpdateRemove(t *testing.T) {
	rec := Normalize(map[string]any{"code": "P1"})

	err := ApplyListOp(&rec, "consultationFees", ListOp{Op: OpAdd, Item: json.RawMessage(`{"description":"GP visit","amount":"35"}`)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	ApplyListOp(&rec, "consultationFees", ListOp{Op: OpAdd, Item: json.RawMessage(`{"description":"Night","amount":"50"}`)})

	err = ApplyListOp(&rec, "consultationFees", ListOp{Op: OpUpdate, Index: 0, Item: json.RawMessage(`{"amount":"40"}`)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.ConsultationFees[0] != (ConsultationFee{Description: "GP visit", Amount: "40"}) {
		t.Errorf("update must merge shallowly, got %+v", rec.ConsultationFees[0])
	}

	ApplyListOp(&rec, "consultationFees", ListOp{Op: OpRemove, Index: 0})
	if len(rec.ConsultationFees) != 1 || rec.ConsultationFees[0].Description != "Night" {
		t.Errorf("unexpected rows after remove: %+v", rec.ConsultationFees)
	}
}

func TestApplyListOp_OutOfRangeIsNoop(t *testing.T) {
	rec := Normalize(map[string]any{"code": "P1", "discounts": []any{map[string]any{"category": "GP"}}})
	before := rec.Clone()

	ApplyListOp(&rec, "discounts", ListOp{Op: OpRemove, Index: 5})
	ApplyListOp(&rec, "discounts", ListOp{Op: OpUpdate, Index: -1, Item: json.RawMessage(`{"category":"X"}`)})

	if len(rec.Discounts) != 1 || rec.Discounts[0] != before.Discounts[0] {
		t.Errorf("expected no change, got %+v", rec.Discounts)
	}
}

func TestApplyListOp_DoesNotTouchPreviousSlice(t *testing.T) {
	rec := Normalize(map[string]any{"code": "P1", "servicesProvided": []any{"GP", "Dental"}})
	held := rec.ServicesProvided

	ApplyListOp(&rec, "servicesProvided", ListOp{Op: OpUpdate, Index: 0, Item: json.RawMessage(`"Specialist"`)})
	ApplyListOp(&rec, "servicesProvided", ListOp{Op: OpRemove, Index: 1})

	if held[0] != "GP" || held[1] != "Dental" {
		t.Errorf("previous slice was mutated: %v", held)
	}
	if len(rec.ServicesProvided) != 1 || rec.ServicesProvided[0] != "Specialist" {
		t.Errorf("unexpected services %v", rec.ServicesProvided)
	}
}

func TestApplyListOp_LegacyPackagesName(t *testing.T) {
	rec := Normalize(map[string]any{"code": "P1"})
	if err := ApplyListOp(&rec, "packages", ListOp{Op: OpAdd, Item: json.RawMessage(`{"name":"Executive"}`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.HealthScreeningPackages) != 1 {
		t.Errorf("expected one package, got %+v", rec.HealthScreeningPackages)
	}
}

func TestApplyListOp_Move(t *testing.T) {
	rec := Normalize(map[string]any{"code": "P1", "servicesProvided": []any{"a", "b", "c"}})
	ApplyListOp(&rec, "servicesProvided", ListOp{Op: OpMove, Index: 0, To: 2})
	if rec.ServicesProvided[0] != "b" || rec.ServicesProvided[2] != "a" {
		t.Errorf("unexpected order %v", rec.ServicesProvided)
	}
}

func TestApplyListOp_Errors(t *testing.T) {
	rec := Normalize(map[string]any{"code": "P1"})
	tests := []struct {
		name  string
		field string
		op    ListOp
	}{
		{"unknown field", "name", ListOp{Op: OpAdd, Item: json.RawMessage(`{}`)}},
		{"unknown op", "doctors", ListOp{Op: "splice"}},
		{"missing item", "doctors", ListOp{Op: OpAdd}},
		{"bad item", "doctors", ListOp{Op: OpAdd, Item: json.RawMessage(`"just a string"`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyListOp(&rec, tt.field, tt.op)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(rec.Doctors) != 0 {
		t.Errorf("failed ops must not change the record: %+v", rec.Doctors)
	}
}
