package compute

import (
	"context"
	"runtime"
)

// Backend runs a chunked loop over particle indices. Implementations
// decide how the range [0, n) is split and scheduled; fn must only write
// to state owned by the indices it is given.
type Backend interface {
	Name() string
	Available() bool
	Workers() int
	ForEach(ctx context.Context, n int, fn func(start, end int) error) error
}

// AutoSelectBackend returns a serial backend for a single worker and a
// CPU pool otherwise. workers <= 0 means one worker per CPU.
func AutoSelectBackend(workers int) Backend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 {
		return NewSerialBackend()
	}
	return NewCPUBackend(workers)
}
