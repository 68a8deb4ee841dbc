package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects or tenants can
// share one backend without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:billing:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// OrderKey generates a prefixed key for a resolved order.
func (k *ScopedKeyer) OrderKey(signature string) string {
	return k.prefix + k.inner.OrderKey(signature)
}

// DeclarationsKey generates a prefixed key for a declaration snapshot.
func (k *ScopedKeyer) DeclarationsKey(signature string) string {
	return k.prefix + k.inner.DeclarationsKey(signature)
}
