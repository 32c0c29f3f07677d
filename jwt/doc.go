// Package jwt wraps signing and verification of access credentials around
// a fixed HS256 algorithm and a pre-shared secret.
//
// # Performance contract
//
// ParseAccess is on the request hot path before any cache lookup. It must
// not perform I/O and must not allocate beyond the returned claims.
package jwt
