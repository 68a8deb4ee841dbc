// Package pkg provides the core libraries for runorder component ordering.
//
// # Overview
//
// runorder takes components (services, seeders, migrations) that declare
// "run me after X" or "run me before Y" plus a numeric priority, and
// produces one deterministic execution order. A relation to a component that
// is not registered is a soft dependency and is ignored. A cycle among
// registered components is an error that names the cycle.
//
// # Architecture
//
// The typical data flow:
//
//	Declaration files / in-process candidates
//	         ↓
//	    [discovery] package (scan roots, decode TOML/YAML/HCL)
//	         ↓
//	    [registry] package (merge with manual registrations)
//	         ↓
//	    [resolver] package (priority-ordered Kahn + cycle detection)
//	         ↓
//	    []string order, cached by [cache] via [pipeline]
//
// # Quick Start
//
//	r := registry.New().
//	    Register("core.Migrations", component.WithPriority(0)).
//	    Register("billing.InvoiceSeeder", component.WithAfter("core.Migrations"))
//
//	order, err := resolver.Resolve(r.Declarations())
//	if err != nil {
//	    var ce *resolver.CycleError
//	    if errors.As(err, &ce) {
//	        log.Fatalf("cycle: %s", ce)
//	    }
//	}
//
// # Main Packages
//
// [component] - The Declaration type: identity, priority, after/before sets,
// and the informational version and requirements.
//
// [registry] - Mutable identity → declaration store that preserves
// registration order, the tie-breaker of last resort.
//
// [resolver] - Edge normalization, the priority-aware topological sort and
// cycle path extraction.
//
// [discovery] - Convention-based file scanning, identity extraction and the
// TOML, YAML and HCL decoders. Malformed files are logged and skipped.
//
// [validate] - Optional pass for required dependencies and version
// constraints. It never changes the order.
//
// ## Infrastructure
//
// [cache] - Byte caches (file, memory, Redis, MongoDB, null) and the
// OrderCache that stores resolved orders by caller signature.
//
// [pipeline] - discover → merge → resolve → filter as one step, shared by the
// CLI, the HTTP server and the watcher.
//
// [server] - HTTP surface for the pipeline.
//
// [watch] - File system watcher that signals when declaration files change.
//
// [render] - Graphviz DOT and SVG output of the ordering graph.
//
// [observability] - Hooks for discovery, resolution and cache events.
//
// [errors] - Coded errors and input validation shared by all packages.
package pkg
