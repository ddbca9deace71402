package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwork-dev/formwork/internal/engine"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/ports"
	"github.com/formwork-dev/formwork/pkg/schema"
)

func newSignupEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{
		engine.WithValidator(schema.Rules{
			"name": {schema.Required(), schema.MinLen(3)},
			"age":  {schema.Required(), schema.Min(18)},
		}),
	}, opts...)
	e := engine.New(map[string]any{"name": "John", "age": 25}, opts...)
	require.NoError(t, e.Init(context.Background()))
	return e
}

func TestInit(t *testing.T) {
	t.Run("literal initializer", func(t *testing.T) {
		e := newSignupEngine(t)
		assert.True(t, e.Initialized())
		assert.Equal(t, "John", e.FieldValue("name"))
		assert.True(t, e.Errors().IsZero())
	})

	t.Run("async initializer", func(t *testing.T) {
		e := engine.New(func(ctx context.Context) (any, error) {
			return map[string]any{"fetched": true}, nil
		})
		require.NoError(t, e.Init(context.Background()))
		assert.Equal(t, true, e.FieldValue("fetched"))
	})

	t.Run("initializer failure propagates", func(t *testing.T) {
		boom := errors.New("fetch failed")
		e := engine.New(func() (any, error) { return nil, boom })
		err := e.Init(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.False(t, e.Initialized())
		// The scoped flag is released even on the failure path.
		assert.False(t, e.Status().Initializing)
	})

	t.Run("runs exactly once", func(t *testing.T) {
		calls := 0
		e := engine.New(func() any {
			calls++
			return map[string]any{}
		})
		require.NoError(t, e.Init(context.Background()))
		require.NoError(t, e.Init(context.Background()))
		assert.Equal(t, 1, calls)
	})

	t.Run("validation runs after init", func(t *testing.T) {
		e := engine.New(
			map[string]any{"name": "Jo"},
			engine.WithValidator(schema.Rules{"name": {schema.MinLen(3)}}),
		)
		require.NoError(t, e.Init(context.Background()))
		assert.NotEmpty(t, e.Errors().Field("name"))
	})
}

func TestUsageBeforeInit(t *testing.T) {
	e := engine.New(map[string]any{})
	ctx := context.Background()

	assert.ErrorIs(t, e.SetState(ctx, map[string]any{}), domain.ErrNotInitialized)
	assert.ErrorIs(t, e.SetFieldValue(ctx, "a", 1), domain.ErrNotInitialized)
	assert.ErrorIs(t, e.SetFieldMeta(ctx, "a", domain.DefaultFieldMeta()), domain.ErrNotInitialized)
	assert.ErrorIs(t, e.Reset(ctx), domain.ErrNotInitialized)
	assert.ErrorIs(t, e.Undo(ctx, 1), domain.ErrNotInitialized)
	assert.Nil(t, e.State())
	assert.False(t, e.CanUndo(1))
	assert.False(t, e.WasModified())
}

func TestSetState(t *testing.T) {
	ctx := context.Background()

	t.Run("literal replacement", func(t *testing.T) {
		e := newSignupEngine(t)
		require.NoError(t, e.SetState(ctx, map[string]any{"name": "Grace", "age": 40}))
		assert.Equal(t, "Grace", e.FieldValue("name"))
	})

	t.Run("sync transform", func(t *testing.T) {
		e := newSignupEngine(t)
		require.NoError(t, e.SetState(ctx, func(cur any) any {
			next := cur.(map[string]any)
			next["age"] = 30
			return next
		}))
		assert.Equal(t, 30, e.FieldValue("age"))
	})

	t.Run("failed resolve clears flag and records nothing", func(t *testing.T) {
		e := newSignupEngine(t)
		boom := errors.New("boom")
		err := e.SetState(ctx, func(any) (any, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, e.Status().SettingState)
		assert.False(t, e.CanUndo(1), "no snapshot recorded for a failed update")
	})

	t.Run("revalidates", func(t *testing.T) {
		e := newSignupEngine(t)
		require.NoError(t, e.SetFieldValue(ctx, "name", "Jo"))
		assert.NotEmpty(t, e.Errors().Field("name"))

		// Errors are rebuilt wholesale: fixing the field clears them.
		require.NoError(t, e.SetFieldValue(ctx, "name", "Joan"))
		assert.True(t, e.Errors().IsZero())
	})
}

func TestSetFieldValue(t *testing.T) {
	ctx := context.Background()

	t.Run("nested path", func(t *testing.T) {
		e := engine.New(map[string]any{})
		require.NoError(t, e.Init(ctx))
		require.NoError(t, e.SetFieldValue(ctx, "user.tags.0", "go"))
		assert.Equal(t, "go", e.FieldValue("user.tags.0"))
	})

	t.Run("transform sees current field value", func(t *testing.T) {
		e := newSignupEngine(t)
		require.NoError(t, e.SetFieldValue(ctx, "age", func(cur any) any {
			return cur.(int) + 1
		}))
		assert.Equal(t, 26, e.FieldValue("age"))
	})

	t.Run("nil state skips the write", func(t *testing.T) {
		e := engine.New(nil)
		require.NoError(t, e.Init(ctx))
		require.NoError(t, e.SetFieldValue(ctx, "a.b", 1))
		assert.Nil(t, e.State())
	})

	t.Run("history snapshots stay isolated", func(t *testing.T) {
		e := engine.New(map[string]any{"tags": []any{"a", "b"}})
		require.NoError(t, e.Init(ctx))
		require.NoError(t, e.SetFieldValue(ctx, "tags.0", "mutated"))
		require.NoError(t, e.Undo(ctx, 1))
		assert.Equal(t, "a", e.FieldValue("tags.0"))
	})
}

func TestStatusScoping(t *testing.T) {
	ctx := context.Background()
	e := newSignupEngine(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- e.SetFieldValue(ctx, "name", func(ctx context.Context, cur any) (any, error) {
			close(entered)
			<-release
			return "Grace", nil
		})
	}()

	<-entered
	// Strictly during the in-flight async setValue.
	assert.True(t, e.FieldStatus("name").SettingValue)
	assert.False(t, e.FieldStatus("age").SettingValue)

	close(release)
	require.NoError(t, <-done)

	// False immediately after.
	assert.False(t, e.FieldStatus("name").SettingValue)
	assert.Equal(t, "Grace", e.FieldValue("name"))
}

func TestFieldMeta(t *testing.T) {
	ctx := context.Background()
	e := newSignupEngine(t)

	t.Run("defaults", func(t *testing.T) {
		meta := e.FieldMeta("untouched")
		assert.True(t, meta.Show)
		assert.False(t, meta.Touched)
	})

	t.Run("set single", func(t *testing.T) {
		before := e.CanUndo(1)
		require.NoError(t, e.SetFieldMeta(ctx, "name", func(cur any) any {
			m := cur.(domain.FieldMeta)
			m.Touched = true
			m.Dirty = true
			return m
		}))
		meta := e.FieldMeta("name")
		assert.True(t, meta.Touched)
		assert.True(t, meta.Dirty)
		// Meta writes do not record history.
		assert.Equal(t, before, e.CanUndo(1))
	})

	t.Run("set all", func(t *testing.T) {
		require.NoError(t, e.SetFieldMetas(ctx, func(cur any) any {
			metas := cur.(map[string]domain.FieldMeta)
			for k, m := range metas {
				m.Disabled = true
				metas[k] = m
			}
			return metas
		}))
		assert.True(t, e.FieldMeta("name").Disabled)
	})

	t.Run("bad update type", func(t *testing.T) {
		err := e.SetFieldMeta(ctx, "name", "not a meta")
		assert.ErrorIs(t, err, domain.ErrBadUpdate)
		assert.False(t, e.FieldStatus("name").SettingMeta)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid is a silent no-op", func(t *testing.T) {
		invoked := false
		e := engine.New(
			map[string]any{"name": "Jo", "age": 17},
			engine.WithValidator(schema.Rules{
				"name": {schema.MinLen(3)},
				"age":  {schema.Min(18)},
			}),
			engine.WithSubmitHandler(func(ctx context.Context, data any) error {
				invoked = true
				return nil
			}),
		)
		require.NoError(t, e.Init(ctx))

		require.NoError(t, e.Submit(ctx))
		assert.False(t, invoked)
		assert.NotEmpty(t, e.Errors().Field("name"))
		assert.NotEmpty(t, e.Errors().Field("age"))
	})

	t.Run("valid invokes handler with data", func(t *testing.T) {
		var got any
		e := newSignupEngine(t, engine.WithSubmitHandler(func(ctx context.Context, data any) error {
			got = data
			return nil
		}))
		require.NoError(t, e.Submit(ctx))
		require.NotNil(t, got)
		assert.Equal(t, "John", got.(map[string]any)["name"])
	})

	t.Run("handler failure propagates after flag cleanup", func(t *testing.T) {
		boom := errors.New("backend down")
		e := newSignupEngine(t, engine.WithSubmitHandler(func(ctx context.Context, data any) error {
			return boom
		}))
		err := e.Submit(ctx)
		assert.ErrorIs(t, err, boom)
		assert.False(t, e.Status().Submitting)
	})

	t.Run("no handler configured", func(t *testing.T) {
		e := newSignupEngine(t)
		assert.ErrorIs(t, e.Submit(ctx), domain.ErrNoSubmitHandler)
	})

	t.Run("handler mutations do not reach the live state", func(t *testing.T) {
		e := newSignupEngine(t, engine.WithSubmitHandler(func(ctx context.Context, data any) error {
			data.(map[string]any)["name"] = "hijacked"
			return nil
		}))
		require.NoError(t, e.Submit(ctx))
		v := e.FieldValue("name")
		assert.Equal(t, "John", v)
	})
}

func TestErrorsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	e := newSignupEngine(t)
	require.NoError(t, e.SetFieldValue(ctx, "name", "Jo"))

	errs := e.Errors()
	require.NotEmpty(t, errs.Field("name"))
	errs.FieldErrors["name"][0] = "tampered"
	errs.FieldErrors["injected"] = []string{"x"}

	fresh := e.Errors()
	assert.NotEqual(t, "tampered", fresh.Field("name")[0])
	assert.Nil(t, fresh.Field("injected"))
}

func TestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("restores initial state", func(t *testing.T) {
		e := newSignupEngine(t)
		require.NoError(t, e.SetFieldValue(ctx, "name", "Grace"))
		assert.True(t, e.WasModified())

		require.NoError(t, e.Reset(ctx))
		assert.Equal(t, "John", e.FieldValue("name"))
		assert.False(t, e.WasModified())
	})

	t.Run("re-runs the initializer", func(t *testing.T) {
		calls := 0
		e := engine.New(func() any {
			calls++
			return map[string]any{"seq": calls}
		})
		require.NoError(t, e.Init(ctx))
		require.NoError(t, e.Reset(ctx))
		assert.Equal(t, 2, calls)
		assert.Equal(t, 2, e.FieldValue("seq"))
		assert.False(t, e.WasModified(), "baseline follows the fresh initializer result")
	})
}

func TestUndoRedo(t *testing.T) {
	ctx := context.Background()
	e := engine.New(map[string]any{"v": 0})
	require.NoError(t, e.Init(ctx))

	require.NoError(t, e.SetFieldValue(ctx, "v", 1))
	require.NoError(t, e.SetFieldValue(ctx, "v", 2))
	assert.True(t, e.CanUndo(1))

	require.NoError(t, e.Undo(ctx, 1))
	assert.Equal(t, 1, e.FieldValue("v"))

	// Undo resolves back through SetState, so it re-records; another undo
	// walks back across the re-recorded snapshot.
	require.NoError(t, e.Undo(ctx, 2))
	assert.Equal(t, 0, e.FieldValue("v"))
}

func TestValidatorInfrastructureFailure(t *testing.T) {
	ctx := context.Background()
	broken := ports.ValidatorFunc(func(ctx context.Context, state any) (domain.Report, error) {
		return domain.Report{}, errors.New("schema service unavailable")
	})

	e := engine.New(map[string]any{}, engine.WithValidator(broken))
	err := e.Init(ctx)
	assert.Error(t, err)
	// State was seeded before the validation pass failed.
	assert.True(t, e.Initialized())
	assert.False(t, e.Status().Validating)
}

func TestConcurrentFieldWrites(t *testing.T) {
	// Independent calls are not serialized; both writes land because they
	// touch different paths sequentially resolved here.
	ctx := context.Background()
	e := engine.New(map[string]any{})
	require.NoError(t, e.Init(ctx))

	done := make(chan error, 2)
	go func() { done <- e.SetFieldValue(ctx, "a", 1) }()
	go func() { done <- e.SetFieldValue(ctx, "b", 2) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
	// Last-write-wins across overlapping calls: at least the later write
	// is present, and the state is a valid map either way.
	_, ok := e.State().(map[string]any)
	assert.True(t, ok)
}
