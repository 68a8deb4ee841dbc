package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/runorder/pkg/cache"
	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/discovery"
	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/observability"
	"github.com/matzehuels/runorder/pkg/resolver"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, server and watcher all use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs discover → merge → resolve → filter with caching.
// A dependency cycle is returned as a CYCLE_DETECTED error wrapping the
// *resolver.CycleError.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", result.RunID[:8])

	d, err := r.discoverer(opts, logger)
	if err != nil {
		return nil, err
	}
	sig, err := r.signature(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	result.Signature = sig
	oc := r.orderCache(opts, logger)

	if !opts.Refresh {
		order, hit := oc.Get(ctx, sig)
		decls, declsHit := oc.GetDeclarations(ctx, sig)
		if hit && declsHit {
			logger.Debug("order cache hit", "signature", shortSig(sig))
			result.CacheHit = true
			result.Resolved = order
			result.Declarations = decls
			result.Order = Filter(order, opts.Only, opts.Except)
			result.Stats.Components = len(decls)
			result.Stats.Edges = len(resolver.Edges(decls))
			return result, nil
		}
	}

	// Stage 1+2: Discover and merge
	discoverStart := time.Now()
	decls, err := r.declarations(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	result.Declarations = decls
	result.Stats.DiscoverTime = time.Since(discoverStart)
	result.Stats.Discovery = d.Stats()
	result.Stats.Components = len(decls)

	logger.Info("discovered components",
		"components", len(decls),
		"skipped", result.Stats.Discovery.Skipped,
		"duration", result.Stats.DiscoverTime)

	// Stage 3: Resolve
	resolveStart := time.Now()
	order, err := Resolve(ctx, decls)
	result.Stats.ResolveTime = time.Since(resolveStart)
	if err != nil {
		return nil, err
	}
	result.Resolved = order
	result.Stats.Edges = len(resolver.Edges(decls))

	logger.Info("resolved order",
		"components", len(order),
		"edges", result.Stats.Edges,
		"duration", result.Stats.ResolveTime)

	oc.Put(ctx, sig, order, opts.TTL)
	oc.PutDeclarations(ctx, sig, decls, opts.TTL)

	// Stage 4: Filter
	result.Order = Filter(order, opts.Only, opts.Except)
	return result, nil
}

// Declarations returns the merged declaration set without resolving it.
// It never reads or writes the cache, so it always reflects the files on disk.
func (r *Runner) Declarations(ctx context.Context, opts Options) ([]component.Declaration, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	d, err := r.discoverer(opts, r.Logger)
	if err != nil {
		return nil, err
	}
	return r.declarations(ctx, d, opts)
}

// Files returns the declaration files matched by opts.
func (r *Runner) Files(ctx context.Context, opts Options) ([]string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	d, err := r.discoverer(opts, r.Logger)
	if err != nil {
		return nil, err
	}
	return d.Match(ctx, opts.Roots...)
}

// Signature returns the cache signature Execute would use for opts.
func (r *Runner) Signature(ctx context.Context, opts Options) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	d, err := r.discoverer(opts, r.Logger)
	if err != nil {
		return "", err
	}
	return r.signature(ctx, d, opts)
}

// Invalidate drops the cached order and declarations for opts and returns
// the signature that was invalidated.
func (r *Runner) Invalidate(ctx context.Context, opts Options) (string, error) {
	sig, err := r.Signature(ctx, opts)
	if err != nil {
		return "", err
	}
	r.orderCache(opts, r.Logger).Invalidate(ctx, sig)
	return sig, nil
}

// Resolve runs the resolver with observability hooks and wraps cycles in a
// coded error. errors.As still extracts the *resolver.CycleError.
func Resolve(ctx context.Context, decls []component.Declaration) ([]string, error) {
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, len(decls))
	start := time.Now()
	order, err := resolver.Resolve(decls)
	hooks.OnResolveComplete(ctx, len(decls), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycleDetected, err, "resolve %d components", len(decls))
	}
	return order, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) discoverer(opts Options, logger *log.Logger) (*discovery.Discoverer, error) {
	conv, err := opts.DiscoveryConvention()
	if err != nil {
		return nil, err
	}
	return discovery.New(
		discovery.WithConvention(conv),
		discovery.WithExclude(opts.Exclude...),
		discovery.WithCandidates(opts.Candidates...),
		discovery.WithLogger(logger),
	)
}

func (r *Runner) declarations(ctx context.Context, d *discovery.Discoverer, opts Options) ([]component.Declaration, error) {
	reg, err := d.Registry(ctx, opts.Roots...)
	if err != nil {
		return nil, err
	}
	reg.Merge(opts.Manual)
	return reg.Declarations(), nil
}

func (r *Runner) signature(ctx context.Context, d *discovery.Discoverer, opts Options) (string, error) {
	if opts.Signature != "" {
		return opts.Signature, nil
	}
	// Glob only: a cache hit must not pay for reading and decoding files.
	files, err := d.Match(ctx, opts.Roots...)
	if err != nil {
		return "", err
	}
	return cache.Signature(opts.signatureSettings(), files), nil
}

func (r *Runner) orderCache(opts Options, logger *log.Logger) *cache.OrderCache {
	c := r.Cache
	if opts.NoCache {
		c = cache.NewNullCache()
	}
	return cache.NewOrderCache(c, r.Keyer, logger)
}

func shortSig(sig string) string {
	if len(sig) > 12 {
		return sig[:12]
	}
	return sig
}
