package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formwork-dev/formwork/pkg/domain"
)

func TestValidationReport(t *testing.T) {
	out := ValidationReport("signup", domain.Errors{})
	assert.Contains(t, out, "# signup")
	assert.Contains(t, out, "Valid")

	out = ValidationReport("signup", domain.Errors{
		FieldErrors: map[string][]string{
			"name": {"required"},
			"age":  {"must be at least 18"},
		},
		FormErrors: []string{"incomplete"},
	})
	assert.Contains(t, out, "Invalid")
	assert.Contains(t, out, "`name`: required")
	assert.Contains(t, out, "incomplete")

	// Field errors come out sorted by path.
	assert.Less(t, strings.Index(out, "age"), strings.Index(out, "name"))
}
