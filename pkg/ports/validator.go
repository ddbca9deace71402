package ports

import (
	"context"

	"github.com/formwork-dev/formwork/pkg/domain"
)

// Validator checks a state tree against a schema. A failed validation is
// a first-class Report, not an error: the error return is reserved for
// validator infrastructure failures and propagates to the mutating caller.
type Validator interface {
	Validate(ctx context.Context, state any) (domain.Report, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, state any) (domain.Report, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(ctx context.Context, state any) (domain.Report, error) {
	return f(ctx, state)
}

// SubmitHandler receives the validated, schema-coerced data when Submit
// passes validation. Its failure propagates out of Submit after the
// engine's status cleanup.
type SubmitHandler func(ctx context.Context, data any) error
