// Package store defines the system-of-record collaborator: the durable
// session and user rows the validation engine falls back to on a full cache
// miss, fetched together in one round trip.
//
// # Components
//
//   - [Store] — the interface the engine consumes (one read, one touch write).
//   - [Postgres] — pgx-backed implementation with a single joined query.
//   - [Memory] — in-process implementation for tests and examples.
//
// # What this package must NOT do
//
//   - Report infrastructure failures as anything but a wrapped [ErrUnavailable];
//     callers distinguish outcomes with errors.Is, never by error shape.
//   - Import the root package or any cache layer (it is a leaf).
package store
