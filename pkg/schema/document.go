package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/formwork-dev/formwork/pkg/ports"
)

// Document is the YAML-declared form schema. It carries either a flat
// list of per-field rule specs, or a JSON Schema body under `schema`
// (validated via kin-openapi). When both are present the JSON Schema body
// wins.
type Document struct {
	Name   string         `mapstructure:"name" yaml:"name"`
	Fields []FieldSpec    `mapstructure:"fields" yaml:"fields"`
	Schema map[string]any `mapstructure:"schema" yaml:"schema"`
}

// FieldSpec declares the rules for one dotted path. Pointer fields
// distinguish "unset" from zero values.
type FieldSpec struct {
	Path     string   `mapstructure:"path" yaml:"path"`
	Required bool     `mapstructure:"required" yaml:"required"`
	MinLen   *int     `mapstructure:"min_len" yaml:"min_len"`
	MaxLen   *int     `mapstructure:"max_len" yaml:"max_len"`
	Min      *float64 `mapstructure:"min" yaml:"min"`
	Max      *float64 `mapstructure:"max" yaml:"max"`
	Pattern  string   `mapstructure:"pattern" yaml:"pattern"`
	OneOf    []string `mapstructure:"one_of" yaml:"one_of"`
}

// Rules expands a field spec into its rule list.
func (f FieldSpec) Rules() []Rule {
	var rules []Rule
	if f.Required {
		rules = append(rules, Required())
	}
	if f.MinLen != nil {
		rules = append(rules, MinLen(*f.MinLen))
	}
	if f.MaxLen != nil {
		rules = append(rules, MaxLen(*f.MaxLen))
	}
	if f.Min != nil {
		rules = append(rules, Min(*f.Min))
	}
	if f.Max != nil {
		rules = append(rules, Max(*f.Max))
	}
	if f.Pattern != "" {
		rules = append(rules, Pattern(f.Pattern))
	}
	if len(f.OneOf) > 0 {
		rules = append(rules, OneOf(f.OneOf...))
	}
	return rules
}

// Validator builds the ports.Validator declared by the document.
func (d *Document) Validator() (ports.Validator, error) {
	if len(d.Schema) > 0 {
		return NewOpenAPI(d.Schema)
	}
	rules := make(Rules, len(d.Fields))
	for _, f := range d.Fields {
		if f.Path == "" {
			return nil, fmt.Errorf("document %q: field with empty path", d.Name)
		}
		rules[f.Path] = f.Rules()
	}
	return rules, nil
}

// Parse decodes a YAML schema document. The YAML is unmarshalled into a
// generic map first and then decoded with mapstructure, so unknown keys
// are reported instead of silently dropped.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return ParseMap(raw)
}

// ParseMap decodes an already-unmarshalled document body, e.g. one
// received inline over a transport. Unknown keys are an error. Weak
// typing absorbs the float64 numbers a JSON decode produces.
func ParseMap(raw map[string]any) (*Document, error) {
	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode schema document: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and parses a schema document. A document without a name
// takes the file's base name (sans extension).
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		base := filepath.Base(path)
		doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return doc, nil
}

// LoadDir parses every .yaml/.yml document in a directory, keyed by name.
func LoadDir(dir string) (map[string]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema directory: %w", err)
	}
	docs := make(map[string]*Document)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		doc, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := docs[doc.Name]; dup {
			return nil, fmt.Errorf("duplicate schema document name %q", doc.Name)
		}
		docs[doc.Name] = doc
	}
	return docs, nil
}
