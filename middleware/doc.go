// Package middleware exposes HTTP middleware adapters for bearer-credential
// enforcement built on top of authgate.Engine validation.
//
// # Guards
//
//   - [Guard] — rejects unauthenticated requests.
//   - [Optional] — validates when a credential is present, passes through otherwise.
//
// Each guard extracts the credential from the Authorization header or a
// configured cookie, calls Engine.Validate, and injects the resulting
// identity into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement validation logic itself — all decisions are delegated to
// Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or the database (Engine handles I/O).
//   - Make authorization decisions beyond mapping Engine errors to status codes.
package middleware
