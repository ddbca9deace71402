package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/formwork-dev/formwork/pkg/domain"
)

// OpenAPI validates state against a JSON Schema body using kin-openapi.
// Schema errors are mapped back to dotted field paths; failures that
// carry no pointer land in the form-level error list.
type OpenAPI struct {
	schema *openapi3.Schema
}

// NewOpenAPI builds a validator from a raw JSON Schema body (the `schema`
// section of a schema document).
func NewOpenAPI(raw map[string]any) (*OpenAPI, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode schema body: %w", err)
	}
	var s openapi3.Schema
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parse schema body: %w", err)
	}
	return &OpenAPI{schema: &s}, nil
}

// Validate normalizes the state to JSON value types and visits it with
// the schema, collecting every violation rather than stopping at the
// first. The coerced data of a passing report is the normalized state.
func (o *OpenAPI) Validate(ctx context.Context, state any) (domain.Report, error) {
	normalized, err := normalizeJSON(state)
	if err != nil {
		return domain.Report{}, fmt.Errorf("normalize state: %w", err)
	}

	visitErr := o.schema.VisitJSON(normalized, openapi3.MultiErrors())
	if visitErr == nil {
		return domain.ValidReport(normalized), nil
	}

	report := domain.Report{FieldErrors: make(map[string][]string)}

	var multi openapi3.MultiError
	flat := []error{visitErr}
	if errors.As(visitErr, &multi) {
		flat = multi
	}

	for _, e := range flat {
		var se *openapi3.SchemaError
		if errors.As(e, &se) {
			p := strings.Join(se.JSONPointer(), ".")
			msg := se.Reason
			if msg == "" {
				msg = se.Error()
			}
			if p == "" {
				report.FormErrors = append(report.FormErrors, msg)
			} else {
				report.FieldErrors[p] = append(report.FieldErrors[p], msg)
			}
			continue
		}
		report.FormErrors = append(report.FormErrors, e.Error())
	}

	return report, nil
}

// normalizeJSON round-trips a value tree through encoding/json so the
// schema visitor sees canonical JSON types (float64, map[string]any).
func normalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
