/*
Package formwork is a form-state engine for reactive user interfaces.

Given a declarative schema, it manages a mutable, deeply-nested state
tree, exposes field-level and array-field-level accessors over dotted
paths, validates state against the schema, tracks per-field and per-form
in-progress status, and supports bounded undo/redo over state history.

A minimal form:

	form, err := formwork.New(ctx,
		map[string]any{"name": "", "age": 0},
		formwork.WithValidator(schema.Rules{
			"name": {schema.Required(), schema.MinLen(3)},
			"age":  {schema.Required(), schema.Min(18)},
		}),
		formwork.WithSubmitHandler(func(ctx context.Context, data any) error {
			return backend.Register(ctx, data)
		}),
	)
	if err != nil {
		return err
	}

	name := field.New(form, "name")
	_ = name.SetValue(ctx, "John")
	_ = form.Submit(ctx)

Updates accept a literal value, a synchronous transform or a blocking
transform, uniformly across state, field values and field meta:

	_ = form.SetFieldValue(ctx, "age", 30)
	_ = form.SetFieldValue(ctx, "age", func(cur any) any { return cur.(int) + 1 })
	_ = form.SetFieldValue(ctx, "age", func(ctx context.Context, cur any) (any, error) {
		return fetchAge(ctx)
	})

Array fields add list operations that ride the same pipeline:

	tags := field.NewArray(form, "user.tags")
	_ = tags.Push(ctx, "go")
	_ = tags.Move(ctx, 0, 2)

Undo and redo walk full-state snapshots, bounded by the history limit:

	_ = form.Undo(ctx)
	_ = form.Redo(ctx)

The engine itself is UI-agnostic. pkg/adapters/http binds it to a REST
API, pkg/adapters/mcp to MCP tools, and pkg/ports lets callers inject
their own observable-cell primitive and validator.
*/
package formwork
