package discovery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/errors"
)

// Attribute is the structured ordering form: a TOML [ordering] table, a YAML
// ordering: map, an HCL ordering {} block, or the value returned by an
// in-process Attributed candidate. A nil Priority means DefaultPriority.
type Attribute struct {
	Priority *int     `toml:"priority" yaml:"priority" hcl:"priority,optional"`
	After    []string `toml:"after" yaml:"after" hcl:"after,optional"`
	Before   []string `toml:"before" yaml:"before" hcl:"before,optional"`
}

// Metadata is everything a decoder reads from one declaration file.
// Ordering, when present, replaces the plain Priority/After/Before fields
// entirely.
type Metadata struct {
	Ordering *Attribute
	Priority *int
	After    []string
	Before   []string
	Version  string
	Requires []component.Requirement
}

// Declaration builds the component declaration for id.
func (m *Metadata) Declaration(id, source string) component.Declaration {
	attr := m.Ordering
	if attr == nil {
		attr = &Attribute{Priority: m.Priority, After: m.After, Before: m.Before}
	}
	return fromAttribute(id, attr,
		component.WithVersion(m.Version),
		component.WithRequires(m.Requires...),
		component.WithSource(source),
	)
}

func fromAttribute(id string, attr *Attribute, opts ...component.Option) component.Declaration {
	d := component.New(id, opts...)
	if attr.Priority != nil {
		d.Priority = *attr.Priority
	}
	d.After = append(d.After, nonEmpty(attr.After)...)
	d.Before = append(d.Before, nonEmpty(attr.Before)...)
	return d
}

func nonEmpty(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Decoder reads ordering metadata from one declaration file format.
type Decoder interface {
	// Type returns the format identifier (e.g., "toml").
	Type() string
	// Supports reports whether this decoder handles the given extension.
	Supports(ext string) bool
	// Decode parses data read from filename.
	Decode(data []byte, filename string) (*Metadata, error)
}

// DefaultDecoders returns decoders for every DefaultExtensions entry.
func DefaultDecoders() []Decoder {
	return []Decoder{TOMLDecoder{}, YAMLDecoder{}, HCLDecoder{}}
}

// DetectDecoder finds a decoder that supports the extension of path.
func DetectDecoder(path string, decoders ...Decoder) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, d := range decoders {
		if d.Supports(ext) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoDecoder, filepath.Base(path))
}

// document is the shared TOML/YAML shape. Unknown keys such as namespace
// and name are ignored by both decoders.
type document struct {
	Priority *int                    `toml:"priority" yaml:"priority"`
	After    []string                `toml:"after" yaml:"after"`
	Before   []string                `toml:"before" yaml:"before"`
	Version  string                  `toml:"version" yaml:"version"`
	Requires []component.Requirement `toml:"requires" yaml:"requires"`
	Ordering *Attribute              `toml:"ordering" yaml:"ordering"`
}

func (doc document) metadata() *Metadata {
	return &Metadata{
		Ordering: doc.Ordering,
		Priority: doc.Priority,
		After:    doc.After,
		Before:   doc.Before,
		Version:  doc.Version,
		Requires: doc.Requires,
	}
}

// TOMLDecoder decodes .toml declaration files.
type TOMLDecoder struct{}

func (TOMLDecoder) Type() string             { return "toml" }
func (TOMLDecoder) Supports(ext string) bool { return ext == ".toml" }

func (TOMLDecoder) Decode(data []byte, filename string) (*Metadata, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", filename)
	}
	return doc.metadata(), nil
}

// YAMLDecoder decodes .yaml and .yml declaration files.
type YAMLDecoder struct{}

func (YAMLDecoder) Type() string             { return "yaml" }
func (YAMLDecoder) Supports(ext string) bool { return ext == ".yaml" || ext == ".yml" }

func (YAMLDecoder) Decode(data []byte, filename string) (*Metadata, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", filename)
	}
	return doc.metadata(), nil
}

// HCLDecoder decodes .hcl declaration files.
type HCLDecoder struct{}

func (HCLDecoder) Type() string             { return "hcl" }
func (HCLDecoder) Supports(ext string) bool { return ext == ".hcl" }

type hclDocument struct {
	Priority *int             `hcl:"priority,optional"`
	After    []string         `hcl:"after,optional"`
	Before   []string         `hcl:"before,optional"`
	Version  string           `hcl:"version,optional"`
	Ordering *Attribute       `hcl:"ordering,block"`
	Requires []hclRequirement `hcl:"requires,block"`
	Remain   hcl.Body         `hcl:",remain"`
}

type hclRequirement struct {
	ID         string `hcl:"id,label"`
	Constraint string `hcl:"constraint,optional"`
	Optional   bool   `hcl:"optional,optional"`
}

func (HCLDecoder) Decode(data []byte, filename string) (*Metadata, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "parse %s", filename)
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "decode %s", filename)
	}

	m := &Metadata{
		Ordering: doc.Ordering,
		Priority: doc.Priority,
		After:    doc.After,
		Before:   doc.Before,
		Version:  doc.Version,
	}
	for _, r := range doc.Requires {
		m.Requires = append(m.Requires, component.Requirement{
			ID:         r.ID,
			Constraint: r.Constraint,
			Optional:   r.Optional,
		})
	}
	return m, nil
}
