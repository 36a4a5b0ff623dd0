package figures

import (
	"fmt"
	"slices"
	"strings"
)

// Group is a set of figures that share one entry point, like a script
// offering several plotting functions.
type Group struct {
	Name    string   `json:"name"`
	Default string   `json:"default"`
	Members []string `json:"members"`
}

// Registry resolves figure and group names to specs.
type Registry struct {
	specs  map[string]*Spec
	order  []string
	groups map[string]*Group
}

// NewRegistry indexes specs. Names must be unique and every group needs
// exactly one default unless it has a single member.
func NewRegistry(specs ...*Spec) (*Registry, error) {
	r := &Registry{
		specs:  make(map[string]*Spec, len(specs)),
		groups: make(map[string]*Group),
	}
	for _, s := range specs {
		if s.Name == "" || s.Build == nil {
			return nil, fmt.Errorf("figure %q is incomplete", s.Name)
		}
		if _, dup := r.specs[s.Name]; dup {
			return nil, fmt.Errorf("duplicate figure %q", s.Name)
		}
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)

		group := s.Group
		if group == "" {
			group = s.Name
		}
		g, ok := r.groups[group]
		if !ok {
			g = &Group{Name: group}
			r.groups[group] = g
		}
		g.Members = append(g.Members, s.Name)
		if s.GroupDefault {
			if g.Default != "" {
				return nil, fmt.Errorf("group %q has two defaults: %s, %s", group, g.Default, s.Name)
			}
			g.Default = s.Name
		}
	}
	for _, g := range r.groups {
		if g.Default == "" {
			if len(g.Members) > 1 {
				return nil, fmt.Errorf("group %q has no default figure", g.Name)
			}
			g.Default = g.Members[0]
		}
	}
	return r, nil
}

// Resolve returns the spec for name. A figure name resolves to itself. A
// group name resolves to function when given, otherwise to the group's
// default figure.
func (r *Registry) Resolve(name, function string) (*Spec, error) {
	if s, ok := r.specs[name]; ok && (function == "" || function == name) {
		return s, nil
	}
	g, ok := r.groups[name]
	if !ok {
		if _, isFigure := r.specs[name]; isFigure {
			return nil, fmt.Errorf("%s has no function %q: %w", name, function, ErrUnknownFunction)
		}
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownFigure)
	}
	if function == "" {
		return r.specs[g.Default], nil
	}
	if !slices.Contains(g.Members, function) {
		return nil, fmt.Errorf("group %s has no function %q (have %v): %w", name, function, g.Members, ErrUnknownFunction)
	}
	return r.specs[function], nil
}

// Get returns the named figure.
func (r *Registry) Get(name string) (*Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// List returns every figure in registration order.
func (r *Registry) List() []*Spec {
	out := make([]*Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

// Groups returns the groups sorted by name.
func (r *Registry) Groups() []Group {
	out := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b Group) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Catalogue returns the registry of every built-in figure.
func Catalogue() *Registry {
	r, err := NewRegistry(
		coincidenceSpec(),
		epscSpec(),
		kinematicsSpec(),
		leakyIFSpec(),
		hebbianSpec(),
		sigmoidSpec(),
		leakyNoiseSpec(),
		firingTimesSpec(),
		firingScatterSpec(),
		firingHist2DSpec(),
	)
	if err != nil {
		// the built-in table is static
		panic(err)
	}
	return r
}
