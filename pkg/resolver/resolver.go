package resolver

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/runorder/pkg/component"
)

// ErrCycle is matched by every *CycleError via errors.Is.
var ErrCycle = errors.New("dependency cycle detected")

// CycleError reports a dependency cycle. Path starts and ends on the same
// identity, e.g. [A B C A], so it can be printed as "A -> B -> C -> A".
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, e.String())
}

// String renders the path joined with arrows.
func (e *CycleError) String() string {
	return strings.Join(e.Path, " -> ")
}

// Unwrap returns ErrCycle so errors.Is(err, ErrCycle) holds.
func (e *CycleError) Unwrap() error { return ErrCycle }

// Edge is a normalized "From must precede To" relation.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// graph is the index-based form of a declaration set. Node indices follow
// input order, which doubles as the final tie-break.
type graph struct {
	ids   []string
	index map[string]int
	prio  []int
	succ  [][]int
	indeg []int
}

func build(decls []component.Declaration) *graph {
	g := &graph{index: make(map[string]int, len(decls))}
	kept := make([]component.Declaration, 0, len(decls))
	for _, d := range decls {
		if _, dup := g.index[d.ID]; dup {
			continue
		}
		g.index[d.ID] = len(g.ids)
		g.ids = append(g.ids, d.ID)
		g.prio = append(g.prio, d.Priority)
		kept = append(kept, d)
	}
	g.succ = make([][]int, len(g.ids))
	g.indeg = make([]int, len(g.ids))

	seen := make(map[[2]int]struct{})
	addEdge := func(from, to int) {
		key := [2]int{from, to}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		g.succ[from] = append(g.succ[from], to)
		g.indeg[to]++
	}

	for self, d := range kept {
		for _, a := range d.After {
			if pred, ok := g.index[a]; ok {
				addEdge(pred, self)
			}
		}
		for _, b := range d.Before {
			if next, ok := g.index[b]; ok {
				addEdge(self, next)
			}
		}
	}
	return g
}

// less orders ready nodes by priority ascending, then input position.
func (g *graph) less(a, b int) int {
	if c := cmp.Compare(g.prio[a], g.prio[b]); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// kahn runs the priority-ordered topological sort and returns the placed
// node indices plus the remaining in-degrees.
func (g *graph) kahn() ([]int, []int) {
	indeg := slices.Clone(g.indeg)

	var ready []int
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	slices.SortFunc(ready, g.less)

	order := make([]int, 0, len(g.ids))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, next := range g.succ[n] {
			indeg[next]--
			if indeg[next] == 0 {
				// Merge into priority position rather than appending.
				pos, _ := slices.BinarySearchFunc(ready, next, g.less)
				ready = slices.Insert(ready, pos, next)
			}
		}
	}
	return order, indeg
}

// cycle finds one cycle among nodes with remaining in-degree. The DFS only
// walks unresolved nodes; resolved nodes cannot be part of a cycle.
func (g *graph) cycle(indeg []int) []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.ids))
	var stack []int
	var found []int

	var dfs func(n int) bool
	dfs = func(n int) bool {
		color[n] = gray
		stack = append(stack, n)
		for _, next := range g.succ[n] {
			if indeg[next] == 0 {
				continue
			}
			switch color[next] {
			case white:
				if dfs(next) {
					return true
				}
			case gray:
				start := slices.Index(stack, next)
				found = append(slices.Clone(stack[start:]), next)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for n := range g.ids {
		if indeg[n] > 0 && color[n] == white && dfs(n) {
			break
		}
	}

	path := make([]string, len(found))
	for i, n := range found {
		path[i] = g.ids[n]
	}
	return path
}

// Resolve computes a deterministic execution order for decls.
//
// Edges come from After (X in Y.After means X precedes Y) and Before
// (Y in X.Before means X precedes Y). References to identities missing from
// decls are dropped. Among components whose predecessors are all placed,
// the lowest priority goes first and ties keep input order. When the
// relations form a cycle, Resolve returns a *CycleError naming it.
//
// Duplicate identities in decls are ignored after the first occurrence.
func Resolve(decls []component.Declaration) ([]string, error) {
	g := build(decls)
	order, indeg := g.kahn()
	if len(order) != len(g.ids) {
		return nil, &CycleError{Path: g.cycle(indeg)}
	}

	ids := make([]string, len(order))
	for i, n := range order {
		ids[i] = g.ids[n]
	}
	return ids, nil
}

// FindCycle returns one dependency cycle in decls, or nil if there is none.
func FindCycle(decls []component.Declaration) []string {
	g := build(decls)
	order, indeg := g.kahn()
	if len(order) == len(g.ids) {
		return nil
	}
	return g.cycle(indeg)
}

// Edges returns the normalized, deduplicated precedence edges of decls in
// a stable order (by source position, then insertion).
func Edges(decls []component.Declaration) []Edge {
	g := build(decls)
	var edges []Edge
	for from, targets := range g.succ {
		for _, to := range targets {
			edges = append(edges, Edge{From: g.ids[from], To: g.ids[to]})
		}
	}
	return edges
}
