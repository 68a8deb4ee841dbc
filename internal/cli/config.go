package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/pipeline"
	"github.com/matzehuels/runorder/pkg/registry"
)

// Cache backend names accepted in cache.backend.
const (
	backendFile   = "file"
	backendMemory = "memory"
	backendRedis  = "redis"
	backendMongo  = "mongo"
	backendNone   = "none"
)

// localConfigFile is looked up in the working directory before the user
// config directory.
const localConfigFile = ".runorder.toml"

// Config is the resolved CLI configuration.
type Config struct {
	Roots            []string      `mapstructure:"roots"`
	Convention       string        `mapstructure:"convention"`
	ConventionSubdir string        `mapstructure:"convention_subdir"`
	ConventionSuffix string        `mapstructure:"convention_suffix"`
	Extensions       []string      `mapstructure:"extensions"`
	Exclude          []string      `mapstructure:"exclude"`
	Manifest         string        `mapstructure:"manifest"`
	Cache            CacheConfig   `mapstructure:"cache"`
	Redis            RedisConfig   `mapstructure:"redis"`
	Mongo            MongoConfig   `mapstructure:"mongo"`
	Serve            ServeConfig   `mapstructure:"serve"`
	Components       []ManualEntry `mapstructure:"components"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig addresses the Redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// MongoConfig addresses the MongoDB cache backend.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// ServeConfig configures the HTTP server started by "runorder serve".
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// ManualEntry is one manual registration from the config file. Config keys
// are case-folded, so identities live in the id value rather than the key.
type ManualEntry struct {
	ID       string   `mapstructure:"id"`
	Priority *int     `mapstructure:"priority"`
	After    []string `mapstructure:"after"`
	Before   []string `mapstructure:"before"`
	Version  string   `mapstructure:"version"`
}

// setDefaults registers every default with v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("roots", pipeline.DefaultRoots)
	v.SetDefault("convention", pipeline.DefaultConvention)
	v.SetDefault("cache.backend", backendFile)
	v.SetDefault("cache.ttl", pipeline.DefaultTTL)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", appName+":")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", appName)
	v.SetDefault("mongo.collection", "cache")
	v.SetDefault("serve.addr", ":8080")
}

// loadConfig reads the config file and environment into c.cfg.
//
// Lookup order:
//  1. --config flag
//  2. ./.runorder.toml
//  3. $XDG_CONFIG_HOME/runorder/config.toml (~/.config/runorder)
//
// A missing config file is not an error; defaults and RUNORDER_* variables
// still apply.
func (c *CLI) loadConfig() error {
	v := c.v
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case c.cfgFile != "":
		v.SetConfigFile(c.cfgFile)
	case fileExists(localConfigFile):
		v.SetConfigFile(localConfigFile)
	default:
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) || c.cfgFile != "" {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
		}
	} else {
		c.Logger.Debug("loaded config", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	// Environment variables arrive as single strings.
	cfg.Roots = splitList(cfg.Roots)
	cfg.Exclude = splitList(cfg.Exclude)
	cfg.Extensions = splitList(cfg.Extensions)
	c.cfg = cfg
	return nil
}

// manualRegistry builds the manual registrations from the config file and
// the optional manifest. Config entries come first; the manifest only fills
// identities the config does not name.
func (c *CLI) manualRegistry() (*registry.Registry, error) {
	reg := registry.New()
	for i, e := range c.cfg.Components {
		if err := errors.ValidateIdentity(e.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "components[%d]", i)
		}
		d := component.New(e.ID,
			component.WithAfter(e.After...),
			component.WithBefore(e.Before...),
			component.WithVersion(e.Version),
			component.WithSource("manual"))
		if e.Priority != nil {
			d.Priority = *e.Priority
		}
		reg.Add(d)
	}

	if c.cfg.Manifest != "" {
		entries, err := loadManifest(c.cfg.Manifest)
		if err != nil {
			return nil, err
		}
		reg.Merge(registry.New().RegisterMany(entries))
	}
	if reg.Len() == 0 {
		return nil, nil
	}
	return reg, nil
}

// manifestFile is the layout of a --manifest file:
//
//	[components]
//	"core.Migrations" = 5
//
//	[components."billing.InvoiceSeeder"]
//	priority = 20
//	after = ["core.Migrations"]
type manifestFile struct {
	Components map[string]toml.Primitive `toml:"components"`
}

type manifestTable struct {
	Priority *int     `toml:"priority"`
	After    []string `toml:"after"`
	Before   []string `toml:"before"`
	Version  string   `toml:"version"`
}

// loadManifest decodes a manifest into bulk registration entries. A bare
// integer is a priority shorthand; a table is a full declaration.
func loadManifest(path string) (map[string]component.Entry, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	var mf manifestFile
	md, err := toml.DecodeFile(path, &mf)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "manifest %s", path)
	}

	entries := make(map[string]component.Entry, len(mf.Components))
	for id, prim := range mf.Components {
		if err := errors.ValidateIdentity(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "manifest %s", path)
		}
		var prio int
		if err := md.PrimitiveDecode(prim, &prio); err == nil {
			entries[id] = component.Priority(prio)
			continue
		}
		var tbl manifestTable
		if err := md.PrimitiveDecode(prim, &tbl); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err,
				"manifest %s: component %s must be an integer or a table", path, id)
		}
		d := component.New(id,
			component.WithAfter(tbl.After...),
			component.WithBefore(tbl.Before...),
			component.WithVersion(tbl.Version),
			component.WithSource(path))
		if tbl.Priority != nil {
			d.Priority = *tbl.Priority
		}
		entries[id] = d
	}
	return entries, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// describeConfig renders the effective config source for "runorder cache path"
// style diagnostics.
func (c *CLI) describeConfig() string {
	if f := c.v.ConfigFileUsed(); f != "" {
		if abs, err := filepath.Abs(f); err == nil {
			return abs
		}
		return f
	}
	return fmt.Sprintf("none (defaults and %s_* environment)", envPrefix)
}
