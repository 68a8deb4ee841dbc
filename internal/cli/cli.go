package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/runorder/pkg/buildinfo"
	"github.com/matzehuels/runorder/pkg/cache"
	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "runorder"

	// envPrefix prefixes every configuration environment variable.
	envPrefix = "RUNORDER"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	v       *viper.Viper
	cfg     Config
	cfgFile string
	noCache bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		v:      viper.New(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "runorder resolves the execution order of declared components",
		Long: `runorder discovers component declarations (services, seeders, migrations)
under one or more roots, merges manual registrations, and prints a single
deterministic execution order that honors every after/before relation and
breaks ties by priority.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (default: ./.runorder.toml or ~/.config/runorder/config.toml)")
	flags.String("convention", "", "discovery convention: seeders, services or custom")
	flags.StringSlice("ext", nil, "declaration file extensions to scan (default: all supported)")
	flags.String("manifest", "", "TOML file with manual component registrations")
	flags.String("cache-backend", "", "cache backend: file, memory, redis, mongo or none")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable caching for this invocation")

	_ = c.v.BindPFlag("convention", flags.Lookup("convention"))
	_ = c.v.BindPFlag("extensions", flags.Lookup("ext"))
	_ = c.v.BindPFlag("manifest", flags.Lookup("manifest"))
	_ = c.v.BindPFlag("cache.backend", flags.Lookup("cache-backend"))

	// Register all subcommands
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, loggerFromContext(ctx)), nil
}

// newCache opens the configured backend. A file cache whose directory
// cannot be determined degrades to no caching.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendMemory:
		return cache.NewMemoryCache(cache.DefaultCleanupInterval), nil
	case backendRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.cfg.Redis.Addr,
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
			Prefix:   c.cfg.Redis.Prefix,
		})
	case backendMongo:
		return cache.NewMongoCache(ctx, cache.MongoOptions{
			URI:        c.cfg.Mongo.URI,
			Database:   c.cfg.Mongo.Database,
			Collection: c.cfg.Mongo.Collection,
		})
	case backendFile, "":
		dir, err := c.cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.cfg.Cache.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/runorder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the user config directory (~/.config/runorder/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions builds run options from the loaded config. Positional
// arguments replace the configured roots.
func (c *CLI) pipelineOptions(args []string) (pipeline.Options, error) {
	manual, err := c.manualRegistry()
	if err != nil {
		return pipeline.Options{}, err
	}
	roots := c.cfg.Roots
	if len(args) > 0 {
		roots = args
	}
	return pipeline.Options{
		Roots:      roots,
		Convention: c.cfg.Convention,
		Subdir:     c.cfg.ConventionSubdir,
		Suffix:     c.cfg.ConventionSuffix,
		Extensions: c.cfg.Extensions,
		Exclude:    c.cfg.Exclude,
		TTL:        c.cfg.Cache.TTL,
		NoCache:    c.noCache,
		Manual:     manual,
	}, nil
}

// splitList flattens repeated and comma-separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
