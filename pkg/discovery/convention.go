package discovery

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/runorder/pkg/errors"
)

// DefaultExtensions are the declaration file formats with a built-in decoder.
var DefaultExtensions = []string{".toml", ".yaml", ".yml", ".hcl"}

// Convention describes which files under a root are declaration sources:
// files named *<Suffix><ext> inside a directory called Subdir.
type Convention struct {
	Subdir     string   // Directory that holds declaration files (e.g. "seeders")
	Suffix     string   // File stem suffix (e.g. "Seeder" matches UserSeeder.toml)
	Extensions []string // Accepted extensions including the dot; nil means DefaultExtensions
}

// ServicesConvention matches root/*/services/*Service.<ext> and root/services/*Service.<ext>.
var ServicesConvention = Convention{Subdir: "services", Suffix: "Service"}

// SeedersConvention matches root/*/seeders/*Seeder.<ext> and root/seeders/*Seeder.<ext>.
var SeedersConvention = Convention{Subdir: "seeders", Suffix: "Seeder"}

// Validate rejects conventions whose parts could escape a root or act as
// glob patterns.
func (c Convention) Validate() error {
	if err := errors.ValidateConventionPart(c.Subdir); err != nil {
		return err
	}
	if err := errors.ValidateConventionPart(c.Suffix); err != nil {
		return err
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.New(errors.ErrCodeInvalidConfig, "extension %q must start with a dot", ext)
		}
		if err := errors.ValidateConventionPart(ext[1:]); err != nil {
			return err
		}
	}
	return nil
}

func (c Convention) extensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultExtensions
	}
	return c.Extensions
}

// Patterns returns the glob patterns for root, nested layout first. Within
// one layout the patterns follow the extension order.
func (c Convention) Patterns(root string) []string {
	exts := c.extensions()
	out := make([]string, 0, 2*len(exts))
	for _, ext := range exts {
		out = append(out, filepath.Join(root, "*", c.Subdir, "*"+c.Suffix+ext))
	}
	for _, ext := range exts {
		out = append(out, filepath.Join(root, c.Subdir, "*"+c.Suffix+ext))
	}
	return out
}

// Matches reports whether path has the shape of a declaration file under
// this convention, ignoring which root it lives in.
func (c Convention) Matches(path string) bool {
	if filepath.Base(filepath.Dir(path)) != c.Subdir {
		return false
	}
	ext := filepath.Ext(path)
	if !slices.Contains(c.extensions(), ext) {
		return false
	}
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return strings.HasSuffix(stem, c.Suffix)
}
