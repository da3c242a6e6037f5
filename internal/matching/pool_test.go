package matching

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPool_VisitsEveryIndexOnce(t *testing.T) {
	t.Parallel()

	const n = 37
	var mu sync.Mutex
	seen := make(map[int]int)

	err := runPool(t.Context(), 5, n, func(_ context.Context, i int) error {
		mu.Lock()
		seen[i]++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, seen, n)
	for i := range n {
		assert.Equal(t, 1, seen[i], "index %d", i)
	}
}

func TestRunPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	var active, peak atomic.Int32
	err := runPool(t.Context(), 10, 40, func(context.Context, int) error {
		cur := active.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(10))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestRunPool_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	var calls atomic.Int32
	err := runPool(ctx, 2, 1000, func(context.Context, int) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, calls.Load(), int32(1000))
}

func TestRunPool_Empty(t *testing.T) {
	t.Parallel()

	err := runPool(t.Context(), 10, 0, func(context.Context, int) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.NoError(t, err)
}
