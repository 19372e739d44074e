package catalog

import (
	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
)

// Selection accumulates selected groups and providers. A provider appears
// at most once however it was selected.
type Selection struct {
	Groups    []string                `json:"groups"`
	Providers []setup.CatalogProvider `json:"providers"`
}

func (s Selection) HasGroup(id string) bool {
	for _, g := range s.Groups {
		if g == id {
			return true
		}
	}
	return false
}

func (s Selection) HasProvider(code string) bool {
	return s.providerIndex(code) >= 0
}

func (s Selection) providerIndex(code string) int {
	for i, p := range s.Providers {
		if p.Code == code {
			return i
		}
	}
	return -1
}

// ToggleGroup selects every member of g, or when g is already selected
// deselects it and removes all its members, including members that were
// picked individually.
func (s Selection) ToggleGroup(g setup.CatalogGroup) Selection {
	out := s.clone()
	if out.HasGroup(g.ID) {
		groups := out.Groups[:0]
		for _, id := range out.Groups {
			if id != g.ID {
				groups = append(groups, id)
			}
		}
		out.Groups = groups
		members := make(map[string]bool, len(g.Providers))
		for _, p := range g.Providers {
			members[p.Code] = true
		}
		kept := out.Providers[:0]
		for _, p := range out.Providers {
			if !members[p.Code] {
				kept = append(kept, p)
			}
		}
		out.Providers = kept
		return out
	}
	out.Groups = append(out.Groups, g.ID)
	for _, p := range g.Providers {
		if !out.HasProvider(p.Code) {
			out.Providers = append(out.Providers, p)
		}
	}
	return out
}

// ToggleProvider adds p, or removes it when already selected. Group
// membership is not updated.
func (s Selection) ToggleProvider(p setup.CatalogProvider) Selection {
	out := s.clone()
	if i := out.providerIndex(p.Code); i >= 0 {
		out.Providers = append(out.Providers[:i], out.Providers[i+1:]...)
		return out
	}
	out.Providers = append(out.Providers, p)
	return out
}

func (s Selection) clone() Selection {
	return Selection{
		Groups:    append([]string{}, s.Groups...),
		Providers: append([]setup.CatalogProvider{}, s.Providers...),
	}
}
