// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module emit events through small hook interfaces and
// never import a metrics or tracing backend themselves. Hosts register
// implementations once at startup; until then every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(&myResolveHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Discovery().OnScanStart(ctx, roots)
//	// ... scan ...
//	observability.Discovery().OnScanComplete(ctx, found, skipped, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Discovery Hooks
// =============================================================================

// DiscoveryHooks receives events from declaration discovery.
type DiscoveryHooks interface {
	OnScanStart(ctx context.Context, roots []string)
	// OnCandidateSkipped fires for every malformed candidate that discovery
	// swallowed; source is a file path or an in-process identity.
	OnCandidateSkipped(ctx context.Context, source string, err error)
	OnScanComplete(ctx context.Context, found, skipped int, duration time.Duration, err error)
}

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from order resolution.
type ResolveHooks interface {
	OnResolveStart(ctx context.Context, components int)
	OnResolveComplete(ctx context.Context, components int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)

	// OnCacheInvalidate records an explicit invalidation.
	OnCacheInvalidate(ctx context.Context, keyType string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDiscoveryHooks is a no-op implementation of DiscoveryHooks.
type NoopDiscoveryHooks struct{}

func (NoopDiscoveryHooks) OnScanStart(context.Context, []string)                          {}
func (NoopDiscoveryHooks) OnCandidateSkipped(context.Context, string, error)              {}
func (NoopDiscoveryHooks) OnScanComplete(context.Context, int, int, time.Duration, error) {}

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, int)                          {}
func (NoopResolveHooks) OnResolveComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)        {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)       {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)   {}
func (NoopCacheHooks) OnCacheInvalidate(context.Context, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	discoveryHooks DiscoveryHooks = NoopDiscoveryHooks{}
	resolveHooks   ResolveHooks   = NoopResolveHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetDiscoveryHooks registers custom discovery hooks. Nil is ignored.
func SetDiscoveryHooks(h DiscoveryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		discoveryHooks = h
	}
}

// SetResolveHooks registers custom resolve hooks. Nil is ignored.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Discovery returns the registered discovery hooks.
func Discovery() DiscoveryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return discoveryHooks
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	discoveryHooks = NoopDiscoveryHooks{}
	resolveHooks = NoopResolveHooks{}
	cacheHooks = NoopCacheHooks{}
}
