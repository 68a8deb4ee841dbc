// Package component defines the declaration every ordered unit carries.
//
// A [Declaration] is the tuple {identity, priority, after, before}. It is the
// only input the resolver understands, so any kind of component (platform
// services, database seeders, plugins) can be ordered once an adapter turns
// it into a Declaration.
//
// # Priority
//
// Priorities are signed integers and LOWER VALUES RUN EARLIER. When two
// components are otherwise unordered, the one with the smaller priority is
// placed first; equal priorities keep registration order. [DefaultPriority]
// is used when nothing is declared.
//
// # Relations
//
// After lists components that must run before this one. Before is the
// mirror: declaring Before: ["X"] on A is the same as declaring
// After: ["A"] on X. References to identities that are not registered are
// soft dependencies and are ignored by the resolver.
//
//	d := component.New("app.Cache",
//	    component.WithPriority(10),
//	    component.WithAfter("app.Config"),
//	)
package component
