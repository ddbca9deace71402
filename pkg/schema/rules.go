package schema

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/path"
)

// Rule checks a single field value. present is false when the path does
// not resolve in the state tree; every built-in rule except Required
// skips absent values.
type Rule interface {
	// Name returns the human-readable name of the rule.
	Name() string
	// Check returns a message error when the value violates the rule.
	Check(value any, present bool) error
}

// Rules maps dotted paths to the rules validated against them. It
// implements ports.Validator; the coerced data of a passing report is the
// state itself.
type Rules map[string][]Rule

// Validate checks every declared path and rebuilds the error map
// wholesale. Rule violations never surface as the error return; that is
// reserved for infrastructure failures.
func (r Rules) Validate(ctx context.Context, state any) (domain.Report, error) {
	fieldErrors := make(map[string][]string)
	for p, rules := range r {
		value, present := path.Get(state, p)
		for _, rule := range rules {
			if err := rule.Check(value, present); err != nil {
				fieldErrors[p] = append(fieldErrors[p], err.Error())
			}
		}
	}
	if len(fieldErrors) > 0 {
		return domain.Report{FieldErrors: fieldErrors}, nil
	}
	return domain.ValidReport(state), nil
}

// --- Built-in rules ---

type requiredRule struct{}

func (requiredRule) Name() string { return "required" }

func (requiredRule) Check(value any, present bool) error {
	if !present || value == nil {
		return fmt.Errorf("required")
	}
	if s, ok := value.(string); ok && s == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// Required fails on absent, nil or empty-string values.
func Required() Rule { return requiredRule{} }

type minLenRule struct{ n int }

func (r minLenRule) Name() string { return fmt.Sprintf("minLen(%d)", r.n) }

func (r minLenRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if len([]rune(s)) < r.n {
		return fmt.Errorf("must be at least %d characters", r.n)
	}
	return nil
}

// MinLen requires a string of at least n characters.
func MinLen(n int) Rule { return minLenRule{n} }

type maxLenRule struct{ n int }

func (r maxLenRule) Name() string { return fmt.Sprintf("maxLen(%d)", r.n) }

func (r maxLenRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if len([]rune(s)) > r.n {
		return fmt.Errorf("must be at most %d characters", r.n)
	}
	return nil
}

// MaxLen requires a string of at most n characters.
func MaxLen(n int) Rule { return maxLenRule{n} }

type minRule struct{ limit float64 }

func (r minRule) Name() string { return fmt.Sprintf("min(%v)", r.limit) }

func (r minRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	n, ok := asFloat(value)
	if !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	if n < r.limit {
		return fmt.Errorf("must be at least %v", r.limit)
	}
	return nil
}

// Min requires a numeric value >= limit.
func Min(limit float64) Rule { return minRule{limit} }

type maxRule struct{ limit float64 }

func (r maxRule) Name() string { return fmt.Sprintf("max(%v)", r.limit) }

func (r maxRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	n, ok := asFloat(value)
	if !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	if n > r.limit {
		return fmt.Errorf("must be at most %v", r.limit)
	}
	return nil
}

// Max requires a numeric value <= limit.
func Max(limit float64) Rule { return maxRule{limit} }

type patternRule struct {
	expr string
	once sync.Once
	re   *regexp.Regexp
	err  error
}

func (r *patternRule) Name() string { return fmt.Sprintf("pattern(%s)", r.expr) }

func (r *patternRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	r.once.Do(func() { r.re, r.err = regexp.Compile(r.expr) })
	if r.err != nil {
		return fmt.Errorf("invalid pattern %q: %v", r.expr, r.err)
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !r.re.MatchString(s) {
		return fmt.Errorf("must match %s", r.expr)
	}
	return nil
}

// Pattern requires a string matching the regular expression.
func Pattern(expr string) Rule { return &patternRule{expr: expr} }

type oneOfRule struct{ allowed []string }

func (r oneOfRule) Name() string { return fmt.Sprintf("oneOf(%v)", r.allowed) }

func (r oneOfRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	s := fmt.Sprintf("%v", value)
	for _, a := range r.allowed {
		if s == a {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", r.allowed)
}

// OneOf requires the value (stringified) to be one of the allowed set.
func OneOf(allowed ...string) Rule { return oneOfRule{allowed} }

type funcRule struct {
	name string
	fn   func(value any) error
}

func (r funcRule) Name() string { return r.name }

func (r funcRule) Check(value any, present bool) error {
	if !present {
		return nil
	}
	return r.fn(value)
}

// Func applies a user-defined check to present values.
func Func(name string, fn func(value any) error) Rule {
	return funcRule{name: name, fn: fn}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
