/*
Package dsl provides a fluent builder for constructing form schemas
programmatically instead of relying on external YAML documents. This is
useful for dynamic schema generation, unit testing and IDE type-checking.

Example usage:

	rules := dsl.NewForm("signup").
		Field("name", schema.Required(), schema.MinLen(3)).
		Field("age", schema.Required(), schema.Min(18)).
		Field("profile.email", schema.Pattern(`^[^@]+@[^@]+$`)).
		Build()
*/
package dsl

import (
	"github.com/formwork-dev/formwork/pkg/schema"
)

// Builder accumulates per-path rules for one form schema.
type Builder struct {
	name  string
	rules schema.Rules
}

// NewForm starts a builder for the named form.
func NewForm(name string) *Builder {
	return &Builder{
		name:  name,
		rules: make(schema.Rules),
	}
}

// Field declares the rules validated against a dotted path. Calling it
// again for the same path appends to the existing rules.
func (b *Builder) Field(path string, rules ...schema.Rule) *Builder {
	b.rules[path] = append(b.rules[path], rules...)
	return b
}

// Name returns the form name.
func (b *Builder) Name() string { return b.name }

// Build compiles the accumulated rules into a validator.
func (b *Builder) Build() schema.Rules {
	out := make(schema.Rules, len(b.rules))
	for p, rules := range b.rules {
		out[p] = append([]schema.Rule(nil), rules...)
	}
	return out
}

// Document exports the builder as a named schema document holding the
// same paths. Rule details that have no document equivalent (custom Func
// rules) are not representable and are omitted.
func (b *Builder) Document() *schema.Document {
	doc := &schema.Document{Name: b.name}
	for p := range b.rules {
		doc.Fields = append(doc.Fields, schema.FieldSpec{Path: p})
	}
	return doc
}
