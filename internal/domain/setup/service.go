package setup

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed setup.json
var fixture []byte

type Service struct {
	data  Data
	lists map[string][]Option
}

// NewService builds a service over the embedded fixture.
func NewService() (*Service, error) {
	var d Data
	if err := json.Unmarshal(fixture, &d); err != nil {
		return nil, fmt.Errorf("decode setup fixture: %w", err)
	}
	return NewServiceFromData(d), nil
}

func NewServiceFromData(d Data) *Service {
	return &Service{
		data: d,
		lists: map[string][]Option{
			ListPanelGroups:        d.PanelGroups,
			ListLanguages:          d.Languages,
			ListProviderTypes:      d.ProviderTypes,
			ListProviderCategories: d.ProviderCategories,
			ListProviderStatuses:   d.ProviderStatuses,
			ListBanks:              d.Banks,
			ListPaymentMethods:     d.PaymentMethods,
		},
	}
}

// ListNames returns the names List accepts, sorted.
func (s *Service) ListNames() []string {
	names := make([]string, 0, len(s.lists))
	for n := range s.lists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns the named option list.
func (s *Service) List(name string) ([]Option, bool) {
	opts, ok := s.lists[name]
	return opts, ok
}

// Contains reports whether code is an entry of the named list.
func (s *Service) Contains(name, code string) bool {
	for _, o := range s.lists[name] {
		if o.Code == code {
			return true
		}
	}
	return false
}

func (s *Service) Products() []Product {
	return s.data.Products
}

// SearchProducts returns the products whose code or name contains q,
// ignoring case. An empty q matches nothing.
func (s *Service) SearchProducts(q string) []Product {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []Product{}
	if q == "" {
		return out
	}
	for _, p := range s.data.Products {
		if strings.Contains(strings.ToLower(p.Code), q) || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) CatalogGroups() []CatalogGroup {
	return s.data.CatalogGroups
}
