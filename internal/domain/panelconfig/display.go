package panelconfig

import (
	"sort"
	"strings"

	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
)

const untypedHeader = "OTHERS"

// Render groups the active providers of c by type under uppercased
// headers. Groups are ordered by header; providers keep list order.
func Render(c ProviderConfig) Display {
	active := c.ActiveProviders()
	byHeader := make(map[string][]setup.CatalogProvider)
	for _, p := range active {
		h := strings.ToUpper(strings.TrimSpace(p.Type))
		if h == "" {
			h = untypedHeader
		}
		byHeader[h] = append(byHeader[h], p)
	}

	headers := make([]string, 0, len(byHeader))
	for h := range byHeader {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	groups := make([]DisplayGroup, 0, len(headers))
	for _, h := range headers {
		groups = append(groups, DisplayGroup{Header: h, Providers: byHeader[h]})
	}
	serviceTypes := c.ServiceTypes()
	if serviceTypes == nil {
		serviceTypes = []string{}
	}
	return Display{
		ID:             c.ID,
		CompanyCode:    c.CompanyCode,
		Panelship:      c.Panelship,
		RestrictAccess: c.RestrictAccess,
		ServiceTypes:   serviceTypes,
		Groups:         groups,
		Total:          len(active),
	}
}
