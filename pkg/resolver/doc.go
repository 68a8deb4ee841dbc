// Package resolver turns a set of component declarations into a single
// deterministic execution order.
//
// # Algorithm
//
// [Resolve] normalizes After and Before into one "X must precede Y"
// relation, dropping references to identities that are not part of the
// input. It then runs Kahn's algorithm where the ready set is kept sorted by
// priority (lower first) and input position. Nodes that become ready are
// merged into their priority position, so priorities are honored inside each
// topological wave as well as across waves.
//
// Runtime is O((V+E) log V) for the sorted insertions; inputs are expected to
// be small (tens to hundreds of components).
//
// # Cycles
//
// When some nodes can never become ready, a depth-first search over the
// unresolved remainder finds one cycle and [Resolve] returns a [*CycleError]
// whose Path starts and ends on the same identity:
//
//	var ce *resolver.CycleError
//	if errors.As(err, &ce) {
//	    fmt.Println(ce.String()) // A -> B -> C -> A
//	}
//
// A component that lists itself in After or Before is a one-node cycle
// reported as [A A].
//
// # Concurrency
//
// The package keeps no state. All functions are safe for concurrent use as
// long as the input slice is not mutated during the call.
package resolver
