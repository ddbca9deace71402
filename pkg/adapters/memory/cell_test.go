package memory_test

import (
	"sync"
	"testing"

	"github.com/formwork-dev/formwork/pkg/adapters/memory"
	"github.com/formwork-dev/formwork/pkg/ports"
)

func TestCell_Contract(t *testing.T) {
	ports.RunCellContract(t, memory.NewCell)
}

func TestCell_ConcurrentUpdates(t *testing.T) {
	c := memory.NewCell(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(v any) any { return v.(int) + 1 })
		}()
	}
	wg.Wait()

	if got := c.Get(); got != 100 {
		t.Errorf("expected 100 after concurrent updates, got %v", got)
	}
}
