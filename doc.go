// Package authgate provides a low-latency bearer-credential validation
// engine: JWT verification, a tiered Redis cache in front of a durable
// session/user store, a pure access-policy evaluator, explicit cache
// invalidation hooks, and a debounced activity tracker.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (ValidationResult, Identity, AccessDecision). Cache
// tiering lives in cache/, the system-of-record contract in store/, token
// handling in jwt/, and background coordination under internal/.
//
// # What this package must NOT do
//
//   - Mint credentials as part of validation (jwt.CreateAccess exists for
//     the login side only).
//   - Treat a cache failure as a denial. Cache errors degrade to misses;
//     the database fallback must stay reachable with the cache down.
//   - Cache an infrastructure error as an invalid session.
//
// # Performance contract
//
// ValidateAndGetUser is the hot path. A combined-cache hit resolves in one
// Redis GET with no database round trip; cache population and activity
// writes run detached from the request.
package authgate
