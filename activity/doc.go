// Package activity records best-effort "last seen" timestamps for
// sessions, debounced per session and written off the request path.
//
// # What this package must NOT do
//
//   - Block or fail the request a touch is attached to.
//   - Affect validation correctness; last-active is a side channel.
package activity
