package matching

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// runPool calls fn for every index in [0, n) using at most workers goroutines.
// Workers pull the next index from a shared counter, so a slow item never
// blocks the items queued behind it. fn must not fail the batch; errors are
// for cancellation only.
func runPool(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	workers = max(1, min(workers, n))

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, i); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}
