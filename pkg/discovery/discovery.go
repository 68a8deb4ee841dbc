package discovery

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/observability"
	"github.com/matzehuels/runorder/pkg/registry"
	"github.com/matzehuels/runorder/pkg/resolver"
)

// ErrNoDecoder is returned when no decoder supports a file's extension.
var ErrNoDecoder = stderrors.New("no decoder for file")

// Stats counts what the last extraction saw.
type Stats struct {
	Scanned    int `json:"scanned"`    // files matched plus in-process candidates
	Skipped    int `json:"skipped"`    // malformed candidates that were swallowed
	Excluded   int `json:"excluded"`   // dropped by the exclusion set
	Duplicates int `json:"duplicates"` // identities already produced by an earlier source
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithConvention sets the file naming convention. Default: SeedersConvention.
func WithConvention(c Convention) Option {
	return func(d *Discoverer) { d.conv = c }
}

// WithExclude drops the given identities before resolution.
func WithExclude(ids ...string) Option {
	return func(d *Discoverer) {
		for _, id := range ids {
			d.exclude[id] = struct{}{}
		}
	}
}

// WithDecoders replaces the format decoders. Default: DefaultDecoders().
func WithDecoders(decs ...Decoder) Option {
	return func(d *Discoverer) { d.decoders = decs }
}

// WithCandidates adds in-process declaration sources. They are extracted
// after all files, in the order given.
func WithCandidates(cs ...Candidate) Option {
	return func(d *Discoverer) { d.candidates = append(d.candidates, cs...) }
}

// WithLogger sets the logger for skip diagnostics. Default: log.Default().
func WithLogger(l *log.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// Discoverer produces declarations from convention-named files under a set
// of roots and from in-process candidates.
//
// Extraction is memoized per root set until Reset. A Discoverer is safe for
// concurrent use; the registries it returns are not shared.
type Discoverer struct {
	conv       Convention
	exclude    map[string]struct{}
	decoders   []Decoder
	candidates []Candidate
	logger     *log.Logger

	mu    sync.Mutex
	memo  map[string]*extraction
	stats Stats
}

type extraction struct {
	decls []component.Declaration
	files []string
	stats Stats
}

// New creates a Discoverer. It returns an error if the convention is invalid.
func New(opts ...Option) (*Discoverer, error) {
	d := &Discoverer{
		conv:     SeedersConvention,
		exclude:  make(map[string]struct{}),
		decoders: DefaultDecoders(),
		memo:     make(map[string]*extraction),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.Default()
	}
	if err := d.conv.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Convention returns the configured convention.
func (d *Discoverer) Convention() Convention { return d.conv }

// Discover extracts declarations under roots and resolves them into one
// order. A cycle among the valid declarations is returned as a
// *resolver.CycleError.
func (d *Discoverer) Discover(ctx context.Context, roots ...string) ([]string, error) {
	decls, err := d.Declarations(ctx, roots...)
	if err != nil {
		return nil, err
	}

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, len(decls))
	start := time.Now()
	order, err := resolver.Resolve(decls)
	hooks.OnResolveComplete(ctx, len(decls), time.Since(start), err)
	return order, err
}

// Registry returns a new registry holding the extracted declarations in
// discovery order.
func (d *Discoverer) Registry(ctx context.Context, roots ...string) (*registry.Registry, error) {
	decls, err := d.Declarations(ctx, roots...)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	for _, decl := range decls {
		reg.Add(decl)
	}
	return reg, nil
}

// Declarations returns the raw extracted declarations in discovery order
// without resolving them. The returned slice is a copy.
func (d *Discoverer) Declarations(ctx context.Context, roots ...string) ([]component.Declaration, error) {
	ex, err := d.extract(ctx, roots)
	if err != nil {
		return nil, err
	}
	out := make([]component.Declaration, len(ex.decls))
	for i, decl := range ex.decls {
		out[i] = decl.Clone()
	}
	return out, nil
}

// Files returns the declaration files matched under roots, in scan order.
func (d *Discoverer) Files(ctx context.Context, roots ...string) ([]string, error) {
	ex, err := d.extract(ctx, roots)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ex.files), nil
}

// Match returns the declaration files under roots without reading or
// decoding them. The result equals what Files reports for the same roots.
func (d *Discoverer) Match(ctx context.Context, roots ...string) ([]string, error) {
	for _, root := range roots {
		if err := errors.ValidatePath(root); err != nil {
			return nil, err
		}
	}
	return d.match(ctx, roots)
}

// Stats returns the counters of the most recent extraction.
func (d *Discoverer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Reset drops every memoized extraction so the next call re-scans.
func (d *Discoverer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.memo)
	d.stats = Stats{}
}

func (d *Discoverer) extract(ctx context.Context, roots []string) (*extraction, error) {
	for _, root := range roots {
		if err := errors.ValidatePath(root); err != nil {
			return nil, err
		}
	}

	key := strings.Join(roots, "\x00")
	d.mu.Lock()
	defer d.mu.Unlock()
	if ex, ok := d.memo[key]; ok {
		d.stats = ex.stats
		return ex, nil
	}

	hooks := observability.Discovery()
	hooks.OnScanStart(ctx, roots)
	start := time.Now()

	ex, err := d.scan(ctx, roots)
	if err != nil {
		hooks.OnScanComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnScanComplete(ctx, len(ex.decls), ex.stats.Skipped, time.Since(start), nil)

	d.memo[key] = ex
	d.stats = ex.stats
	return ex, nil
}

func (d *Discoverer) scan(ctx context.Context, roots []string) (*extraction, error) {
	ex := &extraction{}
	seen := make(map[string]bool)

	accept := func(decl component.Declaration) {
		if _, ok := d.exclude[decl.ID]; ok {
			ex.stats.Excluded++
			d.logger.Debug("excluding component", "id", decl.ID)
			return
		}
		if seen[decl.ID] {
			ex.stats.Duplicates++
			d.logger.Debug("duplicate component, keeping first", "id", decl.ID, "source", decl.Source)
			return
		}
		seen[decl.ID] = true
		ex.decls = append(ex.decls, decl)
	}
	skip := func(source string, err error) {
		ex.stats.Skipped++
		d.logger.Debug("skipping candidate", "source", source, "err", err)
		observability.Discovery().OnCandidateSkipped(ctx, source, err)
	}

	files, err := d.match(ctx, roots)
	if err != nil {
		return nil, err
	}
	ex.files = files

	for _, path := range files {
		ex.stats.Scanned++
		decl, err := d.load(path)
		if err != nil {
			skip(path, err)
			continue
		}
		accept(decl)
	}

	for _, c := range d.candidates {
		ex.stats.Scanned++
		decl, err := Extract(c)
		if err != nil {
			skip(candidateName(c), err)
			continue
		}
		accept(decl)
	}
	return ex, nil
}

// match globs every root with the convention patterns. Roots that do not
// exist are skipped.
func (d *Discoverer) match(ctx context.Context, roots []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			d.logger.Debug("skipping root", "root", root, "err", err)
			continue
		}
		for _, pattern := range d.conv.Patterns(root) {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "bad pattern %s", pattern)
			}
			slices.Sort(matches)
			for _, m := range matches {
				clean := filepath.Clean(m)
				if seen[clean] {
					continue
				}
				seen[clean] = true
				files = append(files, clean)
			}
		}
	}
	return files, nil
}

func (d *Discoverer) load(path string) (component.Declaration, error) {
	dec, err := DetectDecoder(path, d.decoders...)
	if err != nil {
		return component.Declaration{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return component.Declaration{}, err
	}
	id := ScanIdentity(path, data)
	if id == "" {
		return component.Declaration{}, errors.New(errors.ErrCodeInvalidDeclaration, "no namespace in %s", filepath.Base(path))
	}
	if err := errors.ValidateIdentity(id); err != nil {
		return component.Declaration{}, err
	}
	meta, err := dec.Decode(data, path)
	if err != nil {
		return component.Declaration{}, err
	}
	return meta.Declaration(id, path), nil
}

func candidateName(c Candidate) (name string) {
	defer func() {
		if recover() != nil {
			name = "<panicking candidate>"
		}
	}()
	if c == nil {
		return "<nil>"
	}
	return c.ComponentID()
}
