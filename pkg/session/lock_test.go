package session

import (
	"context"
	"sync"
	"testing"

	formwork "github.com/formwork-dev/formwork"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()
	count := 1000

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id, _, err := mgr.Create(ctx, "stress", map[string]any{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = mgr.WithLock(ctx, id, func(ctx context.Context, f *formwork.Form) error {
				return nil
			})
			_ = mgr.Delete(id)
		}(id)
	}
	wg.Wait()

	// Lock entries are refcounted; after all holders release, nothing
	// should remain in memory.
	if leaked := len(mgr.locks); leaked != 0 {
		t.Errorf("memory leak: %d lock entries remaining after delete", leaked)
	}
	if mgr.Len() != 0 {
		t.Errorf("expected no sessions, got %d", mgr.Len())
	}
}
