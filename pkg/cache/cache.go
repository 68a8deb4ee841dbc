// Package cache stores resolved execution orders keyed by a caller-supplied
// signature.
//
// The resolver never needs a cache; this layer only saves the cost of
// re-scanning and re-resolving when the declaration set has not changed.
// Disabling it (see [NullCache]) must produce identical output.
//
// # Backends
//
//   - [FileCache]: one JSON file per key, for CLI runs
//   - [MemoryCache]: in-process, for long-running serve and watch processes
//   - [RedisCache], [MongoCache]: shared stores for several hosts
//   - [NullCache]: caching disabled
//
// # Keys
//
// The signature is opaque: callers decide what identifies a declaration set
// (a version string, or a hash of matched files via [Signature]). A [Keyer]
// turns signatures into backend keys; [ScopedKeyer] adds a tenant prefix.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	TTLOrder        = 24 * time.Hour
	TTLDeclarations = 24 * time.Hour
)

// Cache is a minimal byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer generates backend keys from signatures.
type Keyer interface {
	// OrderKey is the key for a resolved order.
	OrderKey(signature string) string
	// DeclarationsKey is the key for a raw declaration snapshot.
	DeclarationsKey(signature string) string
}

// DefaultKeyer hashes signatures into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// OrderKey returns "order:<sha256>".
func (DefaultKeyer) OrderKey(signature string) string {
	return hashKey("order", signature)
}

// DeclarationsKey returns "decls:<sha256>".
func (DefaultKeyer) DeclarationsKey(signature string) string {
	return hashKey("decls", signature)
}

var _ Keyer = DefaultKeyer{}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
