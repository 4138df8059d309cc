package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs per-candidate scoring with a fixed number of workers. Workers
// receive read-only inputs and write only to their own result slot, so the
// join order never depends on scheduling; callers sort once afterwards.
type Pool struct {
	size int
}

// NewPool creates a pool with the given worker count. Non-positive sizes
// fall back to GOMAXPROCS.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{size: size}
}

// Size returns the fixed worker count.
func (p *Pool) Size() int {
	return p.size
}

// Map invokes fn for every index in [0, n) across the pool. The first error
// cancels the shared context and is returned; there are no retries and no
// silently skipped items.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
