package discovery

import (
	"fmt"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/errors"
)

// Candidate is an in-process declaration source, typically a value
// registered by a package init or passed explicitly at startup.
type Candidate interface {
	ComponentID() string
}

// Attributed candidates carry the structured ordering form. A non-nil
// attribute takes precedence over every plain method below.
type Attributed interface {
	OrderingAttribute() *Attribute
}

// Prioritized candidates expose a plain priority.
type Prioritized interface {
	Priority() int
}

// AfterDeclarer candidates list identities that must run first.
type AfterDeclarer interface {
	After() []string
}

// BeforeDeclarer candidates list identities that must run later.
type BeforeDeclarer interface {
	Before() []string
}

// Versioned candidates report a version for the validation pass.
type Versioned interface {
	Version() string
}

// Extract reads the declaration of one candidate. Panics raised by the
// candidate's methods are recovered and returned as errors.
func Extract(c Candidate) (d component.Declaration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInvalidDeclaration, "candidate %T panicked: %v", c, r)
		}
	}()

	if c == nil {
		return d, errors.New(errors.ErrCodeInvalidDeclaration, "nil candidate")
	}
	id := c.ComponentID()
	if err := errors.ValidateIdentity(id); err != nil {
		return d, err
	}

	attr := attributeOf(c)
	opts := []component.Option{component.WithSource(fmt.Sprintf("candidate:%T", c))}
	if v, ok := c.(Versioned); ok {
		opts = append(opts, component.WithVersion(v.Version()))
	}
	return fromAttribute(id, attr, opts...), nil
}

// attributeOf applies the two-tier lookup: structured attribute first, then
// the plain methods, then defaults.
func attributeOf(c Candidate) *Attribute {
	if a, ok := c.(Attributed); ok {
		if attr := a.OrderingAttribute(); attr != nil {
			return attr
		}
	}
	attr := &Attribute{}
	if p, ok := c.(Prioritized); ok {
		prio := p.Priority()
		attr.Priority = &prio
	}
	if a, ok := c.(AfterDeclarer); ok {
		attr.After = a.After()
	}
	if b, ok := c.(BeforeDeclarer); ok {
		attr.Before = b.Before()
	}
	return attr
}
