package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// IsStorageGroup reports whether a tech group holds storage (and therefore has
// an energy target in addition to a power target).
func IsStorageGroup(name string) bool {
	return strings.Contains(strings.ToLower(name), "battery")
}

// Registry is the immutable project reference data for one run: every project
// whose technology belongs to a tech group, plus the per-group attributes
// derived from them.
type Registry struct {
	projects map[string]Project
	groups   map[string]TechGroup
	names    []string
}

// NewRegistry indexes projects and derives group attributes. All projects in a
// group must share gen_max_age and gen_min_build_capacity.
func NewRegistry(projects []Project, techsForGroup map[string][]string) (*Registry, error) {
	r := &Registry{
		projects: make(map[string]Project, len(projects)),
		groups:   map[string]TechGroup{},
	}
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if p.Group == "" {
			return nil, fmt.Errorf("project %s has no tech group", p.Name)
		}
		if _, dup := r.projects[p.Name]; dup {
			return nil, fmt.Errorf("duplicate project %s", p.Name)
		}
		r.projects[p.Name] = p
		r.names = append(r.names, p.Name)

		g, seen := r.groups[p.Group]
		if !seen {
			r.groups[p.Group] = TechGroup{
				Name:             p.Group,
				Techs:            techsForGroup[p.Group],
				MaxAge:           p.MaxAge,
				MinBuildCapacity: p.MinBuildCapacity,
				Storage:          IsStorageGroup(p.Group),
			}
			continue
		}
		if g.MaxAge != p.MaxAge {
			return nil, fmt.Errorf("tech group %s has mixed values for gen_max_age", p.Group)
		}
		if !sameFloat(g.MinBuildCapacity, p.MinBuildCapacity) {
			return nil, fmt.Errorf("tech group %s has mixed values for gen_min_build_capacity", p.Group)
		}
	}
	for name, g := range r.groups {
		if g.Storage && (len(g.Techs) != 1 || g.Techs[0] != name) {
			return nil, fmt.Errorf("storage tech group %s must contain only the %s technology", name, name)
		}
	}
	sort.Strings(r.names)
	return r, nil
}

func (r *Registry) Project(name string) (Project, bool) {
	p, ok := r.projects[name]
	return p, ok
}

func (r *Registry) Group(name string) (TechGroup, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// Names returns all project names, sorted.
func (r *Registry) Names() []string { return r.names }

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
