package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwork-dev/formwork/pkg/dsl"
	"github.com/formwork-dev/formwork/pkg/schema"
)

func TestBuilder(t *testing.T) {
	rules := dsl.NewForm("signup").
		Field("name", schema.Required(), schema.MinLen(3)).
		Field("age", schema.Min(18)).
		Field("age", schema.Max(120)).
		Build()

	require.Len(t, rules, 2)
	assert.Len(t, rules["age"], 2, "repeated Field calls append")

	report, err := rules.Validate(context.Background(), map[string]any{
		"name": "John",
		"age":  150,
	})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Len(t, report.FieldErrors["age"], 1)
}

func TestBuilder_IsolatedFromLaterMutation(t *testing.T) {
	b := dsl.NewForm("f").Field("a", schema.Required())
	built := b.Build()
	b.Field("a", schema.MinLen(10))

	assert.Len(t, built["a"], 1)
}
