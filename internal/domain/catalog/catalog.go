// Package catalog is the provider selection catalog: provider groups, a
// free-text filter over their members, and a toggled multi-select.
package catalog

import (
	"strings"

	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
)

// Entry is a catalog provider with the group it was listed under.
type Entry struct {
	GroupID string `json:"groupId"`
	setup.CatalogProvider
}

type Catalog struct {
	groups []setup.CatalogGroup
}

func New(groups []setup.CatalogGroup) *Catalog {
	return &Catalog{groups: groups}
}

func (c *Catalog) Groups() []setup.CatalogGroup {
	return c.groups
}

// Group returns the group id.
func (c *Catalog) Group(id string) (setup.CatalogGroup, bool) {
	for _, g := range c.groups {
		if g.ID == id {
			return g, true
		}
	}
	return setup.CatalogGroup{}, false
}

// Filter lists the providers of groupID, or of every group when groupID is
// empty, whose name, code or location contains query ignoring case. An
// empty query matches every provider.
func (c *Catalog) Filter(groupID, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Entry{}
	for _, g := range c.groups {
		if groupID != "" && g.ID != groupID {
			continue
		}
		for _, p := range g.Providers {
			if q == "" || matches(p, q) {
				out = append(out, Entry{GroupID: g.ID, CatalogProvider: p})
			}
		}
	}
	return out
}

// Search is Filter across all groups.
func (c *Catalog) Search(query string) []Entry {
	return c.Filter("", query)
}

// Provider finds a provider by code in any group.
func (c *Catalog) Provider(code string) (setup.CatalogProvider, bool) {
	for _, g := range c.groups {
		for _, p := range g.Providers {
			if p.Code == code {
				return p, true
			}
		}
	}
	return setup.CatalogProvider{}, false
}

func matches(p setup.CatalogProvider, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Code), q) ||
		strings.Contains(strings.ToLower(p.Location), q)
}
