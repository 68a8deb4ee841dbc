package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/observability"
)

// OrderCache stores resolved orders and declaration snapshots by signature.
// Backend failures never surface to callers: a failed read is a miss and a
// failed write is logged, so resolution proceeds exactly as if caching were
// off.
type OrderCache struct {
	cache  Cache
	keyer  Keyer
	logger *log.Logger
}

// NewOrderCache wraps c. Nil arguments fall back to NullCache, the
// DefaultKeyer and log.Default().
func NewOrderCache(c Cache, k Keyer, logger *log.Logger) *OrderCache {
	if c == nil {
		c = NewNullCache()
	}
	if k == nil {
		k = NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &OrderCache{cache: c, keyer: k, logger: logger}
}

// Backend returns the underlying cache.
func (o *OrderCache) Backend() Cache { return o.cache }

// orderEntry is the stored JSON payload for one resolved order.
type orderEntry struct {
	Order      []string  `json:"order"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Get returns the cached order for signature.
func (o *OrderCache) Get(ctx context.Context, signature string) ([]string, bool) {
	var entry orderEntry
	if !o.load(ctx, "order", o.keyer.OrderKey(signature), &entry) {
		return nil, false
	}
	return entry.Order, true
}

// Put stores order under signature for ttl.
func (o *OrderCache) Put(ctx context.Context, signature string, order []string, ttl time.Duration) {
	o.store(ctx, "order", o.keyer.OrderKey(signature), orderEntry{Order: order, ResolvedAt: time.Now().UTC()}, ttl)
}

// GetDeclarations returns the cached declaration snapshot for signature.
func (o *OrderCache) GetDeclarations(ctx context.Context, signature string) ([]component.Declaration, bool) {
	var decls []component.Declaration
	if !o.load(ctx, "decls", o.keyer.DeclarationsKey(signature), &decls) {
		return nil, false
	}
	return decls, true
}

// PutDeclarations stores a declaration snapshot under signature for ttl.
func (o *OrderCache) PutDeclarations(ctx context.Context, signature string, decls []component.Declaration, ttl time.Duration) {
	o.store(ctx, "decls", o.keyer.DeclarationsKey(signature), decls, ttl)
}

// Invalidate forgets everything stored under signature.
func (o *OrderCache) Invalidate(ctx context.Context, signature string) {
	for _, key := range []string{o.keyer.OrderKey(signature), o.keyer.DeclarationsKey(signature)} {
		if err := o.cache.Delete(ctx, key); err != nil {
			o.logger.Warn("cache delete failed", "key", key, "err", err)
		}
	}
	observability.Cache().OnCacheInvalidate(ctx, "order")
}

func (o *OrderCache) load(ctx context.Context, keyType, key string, v any) bool {
	data, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		o.logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		o.logger.Debug("discarding corrupt cache entry", "key", key, "err", err)
		_ = o.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true
}

func (o *OrderCache) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		o.logger.Warn("cache encode failed", "key", key, "err", err)
		return
	}
	if err := o.cache.Set(ctx, key, data, ttl); err != nil {
		o.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
