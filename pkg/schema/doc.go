// Package schema implements the validation adapters consumed by the
// Formwork engine: a lightweight rule-based validator keyed by dotted
// paths, a JSON Schema validator backed by kin-openapi, and a YAML
// document format that declares either.
package schema
