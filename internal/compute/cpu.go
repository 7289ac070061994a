package compute

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny ranges from being split across goroutines.
const minChunk = 16

type CPUBackend struct {
	workers int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Workers() int    { return c.workers }

// ForEach splits [0, n) into one contiguous chunk per worker. The first
// error cancels the chunks that have not started yet and is returned.
func (c *CPUBackend) ForEach(ctx context.Context, n int, fn func(start, end int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	if n < minChunk || c.workers == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(0, n)
	}

	workers := c.workers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	chunkSize := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		s, e := start, end
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(s, e)
		})
	}

	return g.Wait()
}
