// Package pipeline runs discovery, registration and resolution as one step.
//
// This package implements the discover → merge → resolve flow shared by the
// CLI, the HTTP server and the watcher. By centralizing it, every entry point
// applies the same defaults, cache policy and post-resolution filters.
//
// # Stages
//
//  1. Discover: scan the roots with the configured convention
//  2. Merge: fill gaps with manual registrations (discovered entries win)
//  3. Resolve: produce the execution order, or a cycle error
//  4. Filter: apply --only / --exclude without reordering
//
// The resolved (unfiltered) order and the declaration snapshot are cached by
// signature. Filtering always runs after the cache, so one cache entry
// serves every filter combination.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Roots:      []string{"modules"},
//	    Convention: pipeline.ConventionSeeders,
//	    Only:       []string{"billing"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, id := range result.Order {
//	    run(id)
//	}
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/runorder/pkg/cache"
	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/discovery"
	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/registry"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, server and watcher
// =============================================================================

// Convention names accepted in Options.Convention.
const (
	ConventionSeeders  = "seeders"
	ConventionServices = "services"
	ConventionCustom   = "custom"
)

const (
	// DefaultConvention is used when Options.Convention is empty.
	DefaultConvention = ConventionSeeders

	// DefaultTTL is how long resolved orders stay cached.
	DefaultTTL = cache.TTLOrder
)

// DefaultRoots is used when Options.Roots is empty.
var DefaultRoots = []string{"."}

// ValidConventions is the set of supported convention names.
var ValidConventions = map[string]bool{
	ConventionSeeders:  true,
	ConventionServices: true,
	ConventionCustom:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization so it can feed the signature.
type Options struct {
	// Discovery options
	Roots      []string `json:"roots"`
	Convention string   `json:"convention"`
	Subdir     string   `json:"subdir,omitempty"`     // custom convention only
	Suffix     string   `json:"suffix,omitempty"`     // custom convention only
	Extensions []string `json:"extensions,omitempty"` // empty means all built-in formats
	Exclude    []string `json:"exclude,omitempty"`    // identities dropped before resolution

	// Post-resolution filters (exact or substring match)
	Only   []string `json:"-"`
	Except []string `json:"-"`

	// Cache options
	Signature string        `json:"-"` // caller-controlled; computed from files when empty
	NoCache   bool          `json:"-"`
	Refresh   bool          `json:"-"`
	TTL       time.Duration `json:"-"`

	// Runtime options (not serialized)
	Manual     *registry.Registry    `json:"-"` // merged after discovery, never overriding it
	Candidates []discovery.Candidate `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and HTTP responses.
	RunID string `json:"run_id"`

	// Signature is the cache signature the run used.
	Signature string `json:"signature"`

	// Order is the filtered execution order.
	Order []string `json:"order"`

	// Resolved is the full order before filtering.
	Resolved []string `json:"resolved"`

	// Declarations is the merged declaration set in registration order.
	Declarations []component.Declaration `json:"declarations,omitempty"`

	// CacheHit reports whether Resolved came from the cache.
	CacheHit bool `json:"cache_hit"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Components   int             `json:"components"`
	Edges        int             `json:"edges"`
	Discovery    discovery.Stats `json:"discovery"`
	DiscoverTime time.Duration   `json:"discover_time"`
	ResolveTime  time.Duration   `json:"resolve_time"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateConvention checks that a convention name is valid.
func ValidateConvention(name string) error {
	if !ValidConventions[name] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid convention: %q (must be one of: seeders, services, custom)", name)
	}
	return nil
}

// ValidatePatterns rejects empty filter patterns, which would match every
// identity as a substring.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "filter pattern cannot be empty")
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Roots) == 0 {
		o.Roots = slices.Clone(DefaultRoots)
	}
	for _, root := range o.Roots {
		if err := errors.ValidatePath(root); err != nil {
			return err
		}
	}
	if o.Convention == "" {
		o.Convention = DefaultConvention
	}
	if err := ValidateConvention(o.Convention); err != nil {
		return err
	}
	if _, err := o.DiscoveryConvention(); err != nil {
		return err
	}
	if err := ValidatePatterns(o.Only); err != nil {
		return err
	}
	if err := ValidatePatterns(o.Except); err != nil {
		return err
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	o.validated = true
	return nil
}

// DiscoveryConvention maps the convention name and custom parts to a
// validated discovery.Convention.
func (o *Options) DiscoveryConvention() (discovery.Convention, error) {
	var c discovery.Convention
	switch o.Convention {
	case ConventionSeeders, "":
		c = discovery.SeedersConvention
	case ConventionServices:
		c = discovery.ServicesConvention
	case ConventionCustom:
		if o.Subdir == "" || o.Suffix == "" {
			return c, errors.New(errors.ErrCodeInvalidConfig, "custom convention requires subdir and suffix")
		}
		c = discovery.Convention{Subdir: o.Subdir, Suffix: o.Suffix}
	default:
		return c, ValidateConvention(o.Convention)
	}
	if len(o.Extensions) > 0 {
		c.Extensions = slices.Clone(o.Extensions)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

type candidateStamp struct {
	Type        string                 `json:"type"`
	Declaration *component.Declaration `json:"declaration,omitempty"`
	Err         string                 `json:"err,omitempty"`
}

// signatureSettings is the part of the options that changes the resolved
// order, including manual registrations.
func (o *Options) signatureSettings() any {
	var manual []component.Declaration
	if o.Manual != nil {
		manual = o.Manual.Declarations()
	}
	// Candidates are keyed by what they declare, not by type, so a changed
	// priority or relation on the same type moves the signature.
	candidates := make([]candidateStamp, len(o.Candidates))
	for i, c := range o.Candidates {
		decl, err := discovery.Extract(c)
		if err != nil {
			candidates[i] = candidateStamp{Type: fmt.Sprintf("%T", c), Err: err.Error()}
			continue
		}
		candidates[i] = candidateStamp{Type: fmt.Sprintf("%T", c), Declaration: &decl}
	}
	return struct {
		Options    *Options                `json:"options"`
		Manual     []component.Declaration `json:"manual,omitempty"`
		Candidates []candidateStamp        `json:"candidates,omitempty"`
	}{o, manual, candidates}
}

// =============================================================================
// Filtering
// =============================================================================

// Filter keeps identities matching any only pattern (all when only is empty)
// and drops those matching any except pattern. A pattern matches an identity
// when it equals it or is a substring of it. The relative order of the
// surviving identities never changes.
func Filter(order, only, except []string) []string {
	out := make([]string, 0, len(order))
	for _, id := range order {
		if len(only) > 0 && !matchesAny(id, only) {
			continue
		}
		if matchesAny(id, except) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func matchesAny(id string, patterns []string) bool {
	for _, p := range patterns {
		if id == p || strings.Contains(id, p) {
			return true
		}
	}
	return false
}
