// Package rworker runs indexed jobs on a fixed number of goroutines.
package rworker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// JobFn handles index idx on the goroutine numbered worker. worker is stable
// for the lifetime of the goroutine so callers can keep per-worker scratch.
type JobFn func(ctx context.Context, worker, idx int) error

// Run calls fn for every index in [0, n) on at most workers goroutines and
// returns the first error. Indexes are handed out in ascending order.
func Run(ctx context.Context, workers, n int, fn JobFn) error {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	g, ctx := errgroup.WithContext(ctx)
	idxCh := make(chan int)

	g.Go(func() error {
		defer close(idxCh)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case idxCh <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			for idx := range idxCh {
				if err := fn(ctx, worker, idx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
