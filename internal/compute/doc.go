// Package compute provides the execution backends used to spread per-particle
// work across goroutines.
//
//   - Serial: runs the whole range on the calling goroutine
//   - CPU: splits the range into contiguous chunks on an errgroup
//
// # Usage
//
//	backend := compute.AutoSelectBackend(cfg.Threads)
//	err := backend.ForEach(ctx, len(particles), func(start, end int) error {
//		for i := start; i < end; i++ {
//			// touch only particle i
//		}
//		return nil
//	})
//
// Force evaluation and integration both write only to the particle owned by
// the current index, so chunks never share mutable state.
package compute
