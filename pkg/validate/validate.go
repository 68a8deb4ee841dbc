// Package validate runs an optional, informational pass over declarations.
//
// The resolver treats references to unknown components as soft dependencies
// and never rejects them. Some call sites want more: required dependencies
// that must be present and version constraints that must hold. [Check]
// reports those per component without touching the resolved order; callers
// decide whether an error-level issue should stop them.
package validate

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matzehuels/runorder/pkg/component"
)

// Severity ranks an Issue.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Kind classifies an Issue.
type Kind string

const (
	KindAbsentAfter       Kind = "absent-after"
	KindAbsentBefore      Kind = "absent-before"
	KindMissingRequired   Kind = "missing-required"
	KindMissingOptional   Kind = "missing-optional"
	KindVersionMismatch   Kind = "version-mismatch"
	KindInvalidConstraint Kind = "invalid-constraint"
)

// Issue is one finding about one component.
type Issue struct {
	Component string   `json:"component"`
	Target    string   `json:"target"`
	Kind      Kind     `json:"kind"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// Report collects issues in declaration order.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	return slices.ContainsFunc(r.Issues, func(i Issue) bool { return i.Severity == SeverityError })
}

// Errors returns only the error-level issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// ByComponent groups issues by the component that declared them.
func (r *Report) ByComponent() map[string][]Issue {
	out := make(map[string][]Issue)
	for _, i := range r.Issues {
		out[i.Component] = append(out[i.Component], i)
	}
	return out
}

func (r *Report) add(comp, target string, kind Kind, sev Severity, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Component: comp,
		Target:    target,
		Kind:      kind,
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Check inspects decls and returns a report. It never fails; an empty
// report means nothing was found.
func Check(decls []component.Declaration) *Report {
	byID := make(map[string]component.Declaration, len(decls))
	for _, d := range decls {
		if _, ok := byID[d.ID]; !ok {
			byID[d.ID] = d
		}
	}

	r := &Report{}
	for _, d := range decls {
		for _, a := range d.After {
			if _, ok := byID[a]; !ok {
				r.add(d.ID, a, KindAbsentAfter, SeverityInfo, "%s runs after %s, which is not registered", d.ID, a)
			}
		}
		for _, b := range d.Before {
			if _, ok := byID[b]; !ok {
				r.add(d.ID, b, KindAbsentBefore, SeverityInfo, "%s runs before %s, which is not registered", d.ID, b)
			}
		}
		for _, req := range d.Requires {
			checkRequirement(r, d.ID, req, byID)
		}
	}
	return r
}

func checkRequirement(r *Report, owner string, req component.Requirement, byID map[string]component.Declaration) {
	target, ok := byID[req.ID]
	if !ok {
		if req.Optional {
			r.add(owner, req.ID, KindMissingOptional, SeverityInfo, "optional dependency %s is not registered", req.ID)
		} else {
			r.add(owner, req.ID, KindMissingRequired, SeverityError, "required dependency %s is not registered", req.ID)
		}
		return
	}
	if req.Constraint == "" {
		return
	}

	c, err := ParseConstraint(req.Constraint)
	if err != nil {
		r.add(owner, req.ID, KindInvalidConstraint, SeverityError, "%v", err)
		return
	}
	if !c.Allows(target.Version) {
		sev := SeverityError
		if req.Optional {
			sev = SeverityInfo
		}
		got := target.Version
		if got == "" {
			got = "unversioned"
		}
		r.add(owner, req.ID, KindVersionMismatch, sev, "%s requires %s %s, found %s", owner, req.ID, req.Constraint, got)
	}
}

// clause is one "op version" term of a constraint.
type clause struct {
	op      string
	version string
}

// Constraint is a conjunction of clauses such as ">=v1.2.0, <v2.0.0".
type Constraint struct {
	clauses []clause
}

// ParseConstraint parses comma-separated clauses. Supported operators are
// >=, >, <=, <, = (or none), ^ (same major, or same minor for v0) and ~
// (same major.minor).
// The leading "v" on versions is optional.
func ParseConstraint(s string) (Constraint, error) {
	var c Constraint
	for _, raw := range strings.Split(s, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		op := ""
		for _, candidate := range []string{">=", "<=", ">", "<", "=", "^", "~"} {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}
		v := canonical(strings.TrimSpace(strings.TrimPrefix(part, op)))
		if v == "" {
			return Constraint{}, fmt.Errorf("invalid version constraint %q", s)
		}
		if op == "" {
			op = "="
		}
		c.clauses = append(c.clauses, clause{op: op, version: v})
	}
	if len(c.clauses) == 0 {
		return Constraint{}, fmt.Errorf("empty version constraint %q", s)
	}
	return c, nil
}

// Allows reports whether version satisfies every clause. An empty or
// unparsable version never satisfies a constraint.
func (c Constraint) Allows(version string) bool {
	v := canonical(version)
	if v == "" {
		return false
	}
	for _, cl := range c.clauses {
		cmp := semver.Compare(v, cl.version)
		var ok bool
		switch cl.op {
		case ">=":
			ok = cmp >= 0
		case ">":
			ok = cmp > 0
		case "<=":
			ok = cmp <= 0
		case "<":
			ok = cmp < 0
		case "=":
			ok = cmp == 0
		case "^":
			ok = cmp >= 0 && caretCompatible(v, cl.version)
		case "~":
			ok = cmp >= 0 && semver.MajorMinor(v) == semver.MajorMinor(cl.version)
		}
		if !ok {
			return false
		}
	}
	return true
}

// caretCompatible reports whether v stays within the caret range of base:
// the same major, the same minor below v1, and the exact patch below v0.1.
func caretCompatible(v, base string) bool {
	switch {
	case semver.Major(base) != "v0":
		return semver.Major(v) == semver.Major(base)
	case semver.MajorMinor(base) != "v0.0":
		return semver.MajorMinor(v) == semver.MajorMinor(base)
	default:
		return semver.Compare(v, base) == 0
	}
}

// canonical normalizes a version for golang.org/x/mod/semver, returning ""
// when it is not valid semver.
func canonical(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
