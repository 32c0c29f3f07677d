// Package background runs detached fire-and-forget work: cache
// repopulation and activity flushes that must survive the cancellation of
// the request that scheduled them.
//
// # What this package must NOT do
//
//   - Propagate a request context into a task.
//   - Block a submitter. Full buffers drop and count, never stall.
//   - Import authgate or any sibling internal package.
package background
