package queue

import "sort"

// Registry is the set of queues a process knows about, keyed by name.
// A nil *Registry means "no registry" to Create.
type Registry struct {
	byName map[string]Definition
	order  []Definition
}

// NewRegistry indexes defs by name. Duplicate names are rejected.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byName: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.name == "" {
			return nil, invalid("name", "", "Invalid queue name: %s", "")
		}
		if _, ok := r.byName[d.name]; ok {
			return nil, invalid("name", d.name, "Duplicate queue name: %s", d.name)
		}
		r.byName[d.name] = d
		r.order = append(r.order, d)
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		if r.order[i].priority != r.order[j].priority {
			return r.order[i].priority < r.order[j].priority
		}
		return r.order[i].name < r.order[j].name
	})
	return r, nil
}

func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[name]
	return ok
}

func (r *Registry) Get(name string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	d, ok := r.byName[name]
	return d, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Definitions returns the registered queues ordered by priority, then name.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the registered names in the same order as Definitions.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.order))
	for _, d := range r.order {
		out = append(out, d.name)
	}
	return out
}

// Resolve is Create checked against r.
func (r *Registry) Resolve(in Input) (Definition, error) {
	return Create(in, r)
}
