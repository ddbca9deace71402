package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/session"
)

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager()

	id, form, err := mgr.Create(ctx, "signup", map[string]any{"name": "John"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NotNil(t, form)

	got, err := mgr.Get(id)
	require.NoError(t, err)
	assert.Same(t, form, got)

	infos := mgr.List()
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)
	assert.Equal(t, "signup", infos[0].Name)

	require.NoError(t, mgr.Delete(id))
	_, err = mgr.Get(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, mgr.Delete(id), domain.ErrSessionNotFound)
}

func TestManager_CreateFailsOnBadInitializer(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager()

	_, _, err := mgr.Create(ctx, "broken", func(ctx context.Context) (any, error) {
		return nil, assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 0, mgr.Len(), "failed creations must not be registered")
}

func TestManager_WithLockSerializesWrites(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager()

	id, _, err := mgr.Create(ctx, "counter", map[string]any{"n": 0})
	require.NoError(t, err)

	var wg sync.WaitGroup
	writes := 50
	for i := 0; i < writes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, id, func(ctx context.Context, f *formwork.Form) error {
				cur, _ := f.FieldValue("n").(int)
				return f.SetFieldValue(ctx, "n", cur+1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	form, err := mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, writes, form.FieldValue("n"))
}

func TestManager_WithLockUnknownSession(t *testing.T) {
	mgr := session.NewManager()
	err := mgr.WithLock(context.Background(), "nope", func(ctx context.Context, f *formwork.Form) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
