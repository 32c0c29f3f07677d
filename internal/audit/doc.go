// Package audit implements async event dispatching for security-relevant
// validation outcomes and cache invalidations.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Event] — structured audit record with timestamp, type, subject, session, IP.
//
// # Architecture boundaries
//
// This package owns event modeling and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the Engine.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import authgate or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
