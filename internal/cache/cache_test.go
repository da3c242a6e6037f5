package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/estatehub/listingguard/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache janitors stop via finalizer, not explicitly
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

type recordingMetrics struct {
	hits, misses, loads, loadErrors, stale atomic.Int64
}

func (r *recordingMetrics) RecordHit(string)  { r.hits.Add(1) }
func (r *recordingMetrics) RecordMiss(string) { r.misses.Add(1) }
func (r *recordingMetrics) RecordLoad(_ string, _ float64, err error) {
	r.loads.Add(1)
	if err != nil {
		r.loadErrors.Add(1)
	}
}
func (r *recordingMetrics) RecordStale(string) { r.stale.Add(1) }

func newTestCache[V any](t *testing.T, ttl time.Duration, load Loader[V]) *Cache[V] {
	t.Helper()
	c, err := New(Options{Name: "test", TTL: ttl, StaleRetention: time.Hour}, load)
	require.NoError(t, err)
	return c
}

func TestGet_LoadsOnceThenHits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestCache(t, time.Minute, func(_ context.Context, key string) (string, error) {
		calls.Add(1)
		return "value-" + key, nil
	})

	for range 3 {
		v, stale, err := c.Get(t.Context(), "a", FreshOnly)
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Equal(t, "value-a", v)
	}

	assert.Equal(t, int32(1), calls.Load())
	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Loads)
	assert.Equal(t, 1, stats.Entries)
}

func TestGet_SingleFlightSharesOneLoad(t *testing.T) {
	t.Parallel()

	const callers = 50
	var calls atomic.Int32
	release := make(chan struct{})

	c := newTestCache(t, time.Minute, func(_ context.Context, _ string) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	})

	var wg sync.WaitGroup
	results := make(chan int, callers)
	for range callers {
		wg.Go(func() {
			v, _, err := c.Get(t.Context(), "markers", FreshOnly)
			if err == nil {
				results <- v
			}
		})
	}

	require.Eventually(t, func() bool { return c.Stats().Misses+c.Stats().Hits == callers }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), calls.Load())
	count := 0
	for v := range results {
		assert.Equal(t, 42, v)
		count++
	}
	assert.Equal(t, callers, count)
}

func TestGet_SingleFlightSharesError(t *testing.T) {
	t.Parallel()

	const callers = 10
	var calls atomic.Int32
	release := make(chan struct{})
	loadErr := errors.NewStd("catalog down")

	c := newTestCache(t, time.Minute, func(_ context.Context, _ string) (int, error) {
		calls.Add(1)
		<-release
		return 0, loadErr
	})

	var wg sync.WaitGroup
	var failures atomic.Int32
	for range callers {
		wg.Go(func() {
			if _, _, err := c.Get(t.Context(), "k", FreshOnly); errors.Is(err, loadErr) {
				failures.Add(1)
			}
		})
	}

	require.Eventually(t, func() bool { return c.Stats().Misses == callers }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(callers), failures.Load())
	assert.Equal(t, int64(1), c.Stats().LoadErrors)
}

func TestGet_StaleFallback(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	metrics := &recordingMetrics{}
	c, err := New(Options{Name: "detail", TTL: 20 * time.Millisecond, StaleRetention: time.Hour, Metrics: metrics},
		func(_ context.Context, key string) (string, error) {
			if fail.Load() {
				return "", fmt.Errorf("upstream failure for %s", key)
			}
			return "v1", nil
		})
	require.NoError(t, err)

	v, stale, err := c.Get(t.Context(), "p-1", AllowStale)
	require.NoError(t, err)
	require.False(t, stale)
	require.Equal(t, "v1", v)

	fail.Store(true)
	require.Eventually(t, func() bool {
		_, found := c.fresh.Get("p-1")
		return !found
	}, time.Second, 5*time.Millisecond)

	v, stale, err = c.Get(t.Context(), "p-1", AllowStale)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, "v1", v)

	_, _, err = c.Get(t.Context(), "p-1", FreshOnly)
	require.Error(t, err)

	assert.Equal(t, int64(1), c.Stats().StaleServed)
	assert.Equal(t, int64(1), metrics.stale.Load())
	assert.Equal(t, int64(2), metrics.loadErrors.Load())
}

func TestGet_NoPriorValueFailsEvenWithAllowStale(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute, func(_ context.Context, _ string) (string, error) {
		return "", errors.NewStd("boom")
	})

	_, stale, err := c.Get(t.Context(), "x", AllowStale)
	require.Error(t, err)
	assert.False(t, stale)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestGet_CallerCancellationDoesNotAbortLoad(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var loaderCtxErr atomic.Value
	c := newTestCache(t, time.Minute, func(ctx context.Context, _ string) (string, error) {
		<-release
		if ctx.Err() != nil {
			loaderCtxErr.Store(ctx.Err())
		}
		return "done", nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Get(ctx, "k", FreshOnly)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return c.Stats().Misses == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return c.Stats().Entries == 1 }, time.Second, time.Millisecond)

	v, _, err := c.Get(t.Context(), "k", FreshOnly)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Nil(t, loaderCtxErr.Load())
}

func TestFlush(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestCache(t, time.Minute, func(_ context.Context, _ string) (int, error) {
		return int(calls.Add(1)), nil
	})

	v, _, err := c.Get(t.Context(), "k", FreshOnly)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	c.Flush()
	assert.Equal(t, 0, c.Stats().Entries)
	assert.Equal(t, 0, c.Stats().StaleEntries)

	v, _, err = c.Get(t.Context(), "k", FreshOnly)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New[int](Options{Name: "x", TTL: time.Minute}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = New(Options{Name: "x"}, func(context.Context, string) (int, error) { return 0, nil })
	require.Error(t, err)
}
