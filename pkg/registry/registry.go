package registry

import (
	"maps"
	"slices"

	"github.com/matzehuels/runorder/pkg/component"
)

// Registry holds the authoritative set of declarations for one resolution
// scope, keyed by identity and remembering registration order.
//
// The zero value is not usable - use New. Registry is not safe for
// concurrent use; hosts sharing one instance across goroutines must
// synchronize access themselves.
type Registry struct {
	decls map[string]component.Declaration
	order []string // identities in registration order
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{decls: make(map[string]component.Declaration)}
}

// Register stores the declaration for id, overwriting any previous one.
// An overwritten identity keeps its original registration position; use
// Remove followed by Register to move it to the end. Register returns the
// receiver so calls can be chained.
func (r *Registry) Register(id string, opts ...component.Option) *Registry {
	return r.Add(component.New(id, opts...))
}

// Add stores a prebuilt declaration with the same upsert semantics as Register.
func (r *Registry) Add(d component.Declaration) *Registry {
	if _, exists := r.decls[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.decls[d.ID] = d.Clone()
	return r
}

// RegisterMany is the bulk form of Register. Each entry is either a bare
// component.Priority or a full component.Declaration. Go maps carry no
// order, so entries are applied in sorted identity order to keep the
// registration-order tie-break deterministic.
func (r *Registry) RegisterMany(entries map[string]component.Entry) *Registry {
	for _, id := range slices.Sorted(maps.Keys(entries)) {
		r.Add(component.FromEntry(id, entries[id]))
	}
	return r
}

// Remove deletes the declaration for id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) *Registry {
	if _, ok := r.decls[id]; !ok {
		return r
	}
	delete(r.decls, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return r
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.decls[id]
	return ok
}

// Get returns a copy of the declaration for id.
func (r *Registry) Get(id string) (component.Declaration, bool) {
	d, ok := r.decls[id]
	if !ok {
		return component.Declaration{}, false
	}
	return d.Clone(), true
}

// All returns a snapshot map of identity to declaration. Mutating the
// returned map or its declarations does not affect the Registry.
func (r *Registry) All() map[string]component.Declaration {
	out := make(map[string]component.Declaration, len(r.decls))
	for id, d := range r.decls {
		out[id] = d.Clone()
	}
	return out
}

// Declarations returns a snapshot of all declarations in registration order.
// This is the input expected by the resolver.
func (r *Registry) Declarations() []component.Declaration {
	out := make([]component.Declaration, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.decls[id].Clone())
	}
	return out
}

// IDs returns registered identities in registration order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.order)
}

// Len returns the number of registered declarations.
func (r *Registry) Len() int { return len(r.order) }

// Merge adds every declaration from other whose identity is not already
// present. Existing entries are never overwritten, so across merges the
// first registrant wins. Merged entries are appended in other's order.
func (r *Registry) Merge(other *Registry) *Registry {
	if other == nil {
		return r
	}
	for _, id := range other.order {
		if r.Has(id) {
			continue
		}
		r.Add(other.decls[id])
	}
	return r
}

// Clear removes every declaration.
func (r *Registry) Clear() *Registry {
	clear(r.decls)
	r.order = r.order[:0]
	return r
}
