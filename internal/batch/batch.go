// Package batch executes a per-item operation over a large item list in
// sequential waves with a fixed concurrency ceiling.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run fans fn out over items in contiguous waves of at most size items.
// Wave k+1 does not start before every operation of wave k has settled;
// after each wave onBatch is invoked with the 1-based wave index and the
// total wave count. Items within a wave complete in any order.
//
// fn is responsible for its own failure handling: an individual item's
// failure must not abort processing of the remaining items. Run returns
// early only when the context is canceled.
func Run[T any](
	ctx context.Context,
	items []T,
	size int,
	fn func(ctx context.Context, item T),
	onBatch func(batch, total int),
) error {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = 1
	}
	total := (len(items) + size - 1) / size

	for i := 0; i < len(items); i += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := i + size
		if end > len(items) {
			end = len(items)
		}

		g, waveCtx := errgroup.WithContext(ctx)
		for _, item := range items[i:end] {
			g.Go(func() error {
				fn(waveCtx, item)
				return nil
			})
		}
		// fn never returns an error, so Wait only reflects ctx state.
		_ = g.Wait()

		if onBatch != nil {
			onBatch(i/size+1, total)
		}
	}
	return nil
}
