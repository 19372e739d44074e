package policy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
)

func newTestService(t *testing.T) (*Service, kvstore.Store) {
	t.Helper()
	products, err := setup.NewService()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	store := kvstore.NewMemory()
	return NewService(store, events.NewBus(zerolog.Nop()), products, zerolog.Nop()), store
}

func mustCreate(t *testing.T, s *Service, p PolicyRecord) PolicyRecord {
	t.Helper()
	created, err := s.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}

func TestService_CreateRequiresFields(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Create(context.Background(), PolicyRecord{PolicyNumber: "POL-1", PolicyName: "  "})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := []string{}
	for _, f := range ve.Fields {
		got = append(got, f.Field)
	}
	if strings.Join(got, ",") != "payor,policyName" {
		t.Errorf("expected payor and policyName, got %v", got)
	}
}

func TestService_CreateAndGet(t *testing.T) {
	s, _ := newTestService(t)
	p := mustCreate(t, s, PolicyRecord{PolicyNumber: " POL-1 ", PolicyName: "<b>Staff</b> GHS", Payor: "Acme Bhd", ProductCode: "GHS"})
	if p.ID == "" || p.PolicyNumber != "POL-1" || p.PolicyName != "Staff GHS" {
		t.Errorf("unexpected record %+v", p)
	}
	got, err := s.Get(context.Background(), p.ID)
	if err != nil || got.PolicyName != "Staff GHS" {
		t.Errorf("get: %+v %v", got, err)
	}
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_DuplicateNumber(t *testing.T) {
	s, _ := newTestService(t)
	mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-1", PolicyName: "A", Payor: "X"})
	_, err := s.Create(context.Background(), PolicyRecord{PolicyNumber: "pol-1", PolicyName: "B", Payor: "Y"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_ConcurrentCreateSameNumber(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	const n = 20
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, PolicyRecord{PolicyNumber: "POL-RACE", PolicyName: "Staff", Payor: "Acme"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, apperr.ErrConflict):
			t.Errorf("unexpected error %v", err)
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one create to win, got %d", created)
	}
	all, _ := s.List(ctx, SearchParams{PolicyNumber: "POL-RACE"})
	if len(all) != 1 {
		t.Errorf("expected one stored policy, got %d", len(all))
	}
}

func TestService_Update(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-1", PolicyName: "A", Payor: "X", Status: "draft"})
	other := mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-2", PolicyName: "B", Payor: "Y"})

	updated, err := s.Update(ctx, p.ID, []byte(`{"status":"active","id":"hijack"}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "active" || updated.PolicyName != "A" || updated.ID != p.ID {
		t.Errorf("unexpected update %+v", updated)
	}

	if _, err := s.Update(ctx, p.ID, []byte(`{"payor":""}`)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := s.Update(ctx, other.ID, []byte(`{"policyNumber":"POL-1"}`)); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if _, err := s.Update(ctx, "missing", []byte(`{}`)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_Search(t *testing.T) {
	s, _ := newTestService(t)
	mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-2", PolicyName: "Executive Outpatient", Payor: "Globex", Status: "active", ProductCode: "GP-01"})
	mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-1", PolicyName: "Staff Hospitalisation", Payor: "Acme Bhd", Status: "active", ProductCode: "GHS-01"})
	mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-3", PolicyName: "Dental", Payor: "Acme Bhd", Status: "expired", ProductCode: "DEN-01"})

	tests := []struct {
		name   string
		params SearchParams
		want   string
	}{
		{"all ordered", SearchParams{}, "POL-1,POL-2,POL-3"},
		{"number", SearchParams{PolicyNumber: "pol-3"}, "POL-3"},
		{"name", SearchParams{PolicyName: "outpatient"}, "POL-2"},
		{"payor", SearchParams{Payor: "acme"}, "POL-1,POL-3"},
		{"status", SearchParams{Status: "active"}, "POL-1,POL-2"},
		{"product", SearchParams{ProductCode: "ghs"}, "POL-1"},
		{"free text", SearchParams{Query: "globex"}, "POL-2"},
		{"combined", SearchParams{Payor: "acme", Status: "expired"}, "POL-3"},
		{"nothing", SearchParams{Query: "zzz"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			nums := []string{}
			for _, p := range got {
				nums = append(nums, p.PolicyNumber)
			}
			if strings.Join(nums, ",") != tt.want {
				t.Errorf("expected %q, got %v", tt.want, nums)
			}
		})
	}
}

func TestService_Products(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-1", PolicyName: "A", Payor: "X", ProductCode: "ghs"})
	products, err := s.Products(ctx, p.ID)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 2 || products[0].Code != "GHS-01" {
		t.Errorf("unexpected products %+v", products)
	}

	none := mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-2", PolicyName: "B", Payor: "X"})
	products, _ = s.Products(ctx, none.ID)
	if products == nil || len(products) != 0 {
		t.Errorf("empty product code should match nothing, got %v", products)
	}
}

func TestService_SubDocuments(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, s, PolicyRecord{PolicyNumber: "POL-1", PolicyName: "A", Payor: "X"})

	rule, err := s.Rule(ctx, p.ID)
	if err != nil || rule.AnnualLimit != "" || rule.Exclusions == nil {
		t.Fatalf("expected empty rule, got %+v %v", rule, err)
	}

	if err := s.SaveRule(ctx, p.ID, Rule{AnnualLimit: "50000", Remarks: "<i>per year</i>"}); err != nil {
		t.Fatalf("save rule: %v", err)
	}
	rule, _ = s.Rule(ctx, p.ID)
	if rule.AnnualLimit != "50000" || rule.Remarks != "per year" {
		t.Errorf("unexpected rule %+v", rule)
	}

	s.SaveServiceTypes(ctx, p.ID, ServiceTypes{Entries: []ServiceTypeEntry{{Code: "GP", Name: "General Practice", Enabled: true}}})
	st, _ := s.ServiceTypes(ctx, p.ID)
	if len(st.Entries) != 1 || !st.Entries[0].Enabled {
		t.Errorf("unexpected service types %+v", st)
	}

	err = s.SaveContact(ctx, p.ID, ContactInfo{Contacts: []Contact{{Email: "a@b.my"}}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected contact name required, got %v", err)
	}
	s.SaveContact(ctx, p.ID, ContactInfo{Contacts: []Contact{{Name: "Aminah", Email: "a@b.my"}}})

	list, _ := s.List(ctx, SearchParams{})
	if len(list) != 1 {
		t.Errorf("sub-documents must not be listed as policies, got %d", len(list))
	}

	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	keys, _ := store.Keys(ctx, "policy:")
	if len(keys) != 0 {
		t.Errorf("expected every policy key removed, got %v", keys)
	}
	if _, err := s.Rule(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestService_SubDocumentNeedsPolicy(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.SaveRule(context.Background(), "missing", Rule{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
