// Package resource implements the Controller for shared limits.
//
// The Controller manages three resource types:
//
//   - Memory: track and cap bytes held by compiled filter bitmaps (non-blocking, fail-fast)
//   - Concurrency: bound how many segments load in parallel
//   - IO: rate-limit segment reads so a cold open does not saturate the store
//
// # Memory Management
//
// AcquireMemory is non-blocking and returns ErrMemoryLimitExceeded if the
// limit would be exceeded. The filter cache reacts by evicting and retrying:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    // evict, then retry or skip caching
//	}
//	defer rc.ReleaseMemory(size)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
