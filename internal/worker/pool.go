// Package worker provides bounded-concurrency fan-out and per-host rate
// limiting for the enrichment and side-channel stages.
package worker

import (
	"context"
	"sync"
)

// Map runs fn over every item with at most workers goroutines and returns the
// outputs in input order. fn failures are the caller's concern: encode them
// in R (enrichment maps failures to null evidence rather than dropping items).
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) R) []R {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	out := make([]R, len(items))
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				out[i] = fn(ctx, items[i])
			}
		}()
	}

	for i := range items {
		select {
		case idx <- i:
		case <-ctx.Done():
			// Leave remaining slots at their zero value.
			close(idx)
			wg.Wait()
			return out
		}
	}
	close(idx)
	wg.Wait()
	return out
}

// Gather runs every fn concurrently and waits for all of them. Used for the
// independent side channels, where each fn writes its own result slot.
func Gather(ctx context.Context, fns ...func(ctx context.Context)) {
	var wg sync.WaitGroup
	for _, fn := range fns {
		wg.Add(1)
		go func(fn func(ctx context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(fn)
	}
	wg.Wait()
}
