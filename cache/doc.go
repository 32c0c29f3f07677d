// Package cache implements the tiered Redis cache in front of the system of
// record: a per-session validity marker, a per-user snapshot, and a combined
// entry that short-circuits both on the hot path.
//
// # Tier precedence
//
// The combined entry, when present and parseable, is authoritative. An
// explicit "invalid" validity marker always wins over any positive signal.
// A miss never denies a request; it only forces the next tier.
//
// # What this package must NOT do
//
//   - Decide validity. It stores and retrieves; the engine owns precedence.
//   - Swallow infrastructure failures. Every Redis error is wrapped in
//     [ErrUnavailable]; the engine decides that cache errors degrade to
//     misses.
package cache
