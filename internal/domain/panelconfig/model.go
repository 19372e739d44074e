// Package panelconfig manages the panel access rules of client companies:
// which providers a company's members may use, and under which panelship.
package panelconfig

import (
	"strings"
	"time"

	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
)

// Panelship values.
const (
	OpenPanel     = "open_panel"
	ClosePanel    = "close_panel"
	SelectAccess  = "select_access"
	ProviderGroup = "provider_group"
)

var validPanelships = map[string]bool{
	OpenPanel: true, ClosePanel: true, SelectAccess: true, ProviderGroup: true,
}

// ProviderConfig is one panel access rule. Only the provider list that
// matches Panelship is in force; the other two are kept as they were.
type ProviderConfig struct {
	ID                     string                  `json:"id"`
	CompanyCode            string                  `json:"companyCode"`
	ServiceType            string                  `json:"serviceType"`
	Panelship              string                  `json:"panelship"`
	RestrictAccess         string                  `json:"restrictAccess"`
	SelectedProviders      []setup.CatalogProvider `json:"selectedProviders"`
	ClosePanelProviders    []setup.CatalogProvider `json:"closePanelProviders"`
	ProviderGroupProviders []setup.CatalogProvider `json:"providerGroupProviders"`
	CreatedAt              time.Time               `json:"createdAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
}

// ActiveProviders returns the list selected by the panelship. An open
// panel has none.
func (c ProviderConfig) ActiveProviders() []setup.CatalogProvider {
	switch c.Panelship {
	case SelectAccess:
		return c.SelectedProviders
	case ClosePanel:
		return c.ClosePanelProviders
	case ProviderGroup:
		return c.ProviderGroupProviders
	}
	return nil
}

// ServiceTypes splits the comma-joined service type field.
func (c ProviderConfig) ServiceTypes() []string {
	var out []string
	for _, s := range strings.Split(c.ServiceType, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ToggleServiceType adds st to the service types, or removes it when
// already present.
func (c *ProviderConfig) ToggleServiceType(st string) {
	cur := c.ServiceTypes()
	out := make([]string, 0, len(cur)+1)
	found := false
	for _, s := range cur {
		if s == st {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, st)
	}
	c.ServiceType = strings.Join(out, ",")
}

// DisplayGroup is the active providers of one type.
type DisplayGroup struct {
	Header    string                  `json:"header"`
	Providers []setup.CatalogProvider `json:"providers"`
}

// Display is the read-only rendering of a config.
type Display struct {
	ID             string         `json:"id"`
	CompanyCode    string         `json:"companyCode"`
	Panelship      string         `json:"panelship"`
	RestrictAccess string         `json:"restrictAccess"`
	ServiceTypes   []string       `json:"serviceTypes"`
	Groups         []DisplayGroup `json:"groups"`
	Total          int            `json:"total"`
}
