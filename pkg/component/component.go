package component

import "slices"

// DefaultPriority is assigned to declarations that do not state a priority.
// Lower values run earlier, so 50 sits in the middle of the conventional
// 0-100 range and leaves room on both sides.
const DefaultPriority = 50

// Declaration describes one component's ordering constraints.
//
// The zero value is not usable - ID must be set. Declarations are treated as
// immutable once registered; updates are modeled as remove-then-register.
type Declaration struct {
	ID       string   `json:"id"`               // Globally unique identity (e.g. "app.services.Cache")
	Priority int      `json:"priority"`         // Lower runs earlier among otherwise unordered components
	After    []string `json:"after,omitempty"`  // Identities that must run strictly before this one
	Before   []string `json:"before,omitempty"` // Identities that must run strictly after this one

	// Version and Requires are informational. They are read only by the
	// optional validation pass and never influence the resolved order.
	Version  string        `json:"version,omitempty"`
	Requires []Requirement `json:"requires,omitempty"`

	// Source records where the declaration came from (file path or "manual").
	Source string `json:"source,omitempty"`
}

// Requirement is a dependency that carries a version constraint and an
// optional flag, as used by the services call site.
type Requirement struct {
	ID         string `json:"id" toml:"id" yaml:"id"`
	Constraint string `json:"constraint,omitempty" toml:"constraint" yaml:"constraint"`
	Optional   bool   `json:"optional,omitempty" toml:"optional" yaml:"optional"`
}

// Option configures a Declaration built with New.
type Option func(*Declaration)

// WithPriority sets the declaration priority.
func WithPriority(p int) Option { return func(d *Declaration) { d.Priority = p } }

// WithAfter appends identities that must precede the component.
func WithAfter(ids ...string) Option {
	return func(d *Declaration) { d.After = append(d.After, ids...) }
}

// WithBefore appends identities that must follow the component.
func WithBefore(ids ...string) Option {
	return func(d *Declaration) { d.Before = append(d.Before, ids...) }
}

// WithVersion sets the component version used by validation.
func WithVersion(v string) Option { return func(d *Declaration) { d.Version = v } }

// WithRequires appends version-constrained requirements.
func WithRequires(reqs ...Requirement) Option {
	return func(d *Declaration) { d.Requires = append(d.Requires, reqs...) }
}

// WithSource records where the declaration originated.
func WithSource(src string) Option { return func(d *Declaration) { d.Source = src } }

// New builds a Declaration with DefaultPriority and applies opts in order.
func New(id string, opts ...Option) Declaration {
	d := Declaration{ID: id, Priority: DefaultPriority}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Clone returns a deep copy so callers can mutate the result freely.
func (d Declaration) Clone() Declaration {
	d.After = slices.Clone(d.After)
	d.Before = slices.Clone(d.Before)
	d.Requires = slices.Clone(d.Requires)
	return d
}

// Entry is a value accepted by bulk registration: either a bare Priority
// (shorthand) or a full Declaration.
type Entry interface {
	declaration(id string) Declaration
}

// Priority is the shorthand Entry: a component with only a priority.
type Priority int

func (p Priority) declaration(id string) Declaration {
	return New(id, WithPriority(int(p)))
}

func (d Declaration) declaration(id string) Declaration {
	d = d.Clone()
	d.ID = id
	return d
}

// FromEntry expands an Entry into a Declaration for id. The identity of a
// full Declaration entry is always replaced by id.
func FromEntry(id string, e Entry) Declaration {
	if e == nil {
		return New(id)
	}
	return e.declaration(id)
}
