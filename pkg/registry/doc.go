// Package registry provides the in-memory store of component declarations
// that feeds the resolver.
//
// A [Registry] is an explicit object: there is no package-level instance.
// Callers that want one canonical registry per process construct it at
// startup and pass it to whatever needs it.
//
// Two write paths exist with different conflict rules:
//
//   - [Registry.Register] / [Registry.Add] upsert: the last registration wins.
//   - [Registry.Merge] only fills gaps: the first registrant wins.
//
// Registration order is preserved and is the final tie-break of the
// resolver, after priority.
//
//	r := registry.New().
//	    Register("A", component.WithPriority(10)).
//	    Register("B", component.WithAfter("A"))
package registry
