package store

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is an exported constant or variable used by the validation engine.
var ErrSessionNotFound = errors.New("session row not found")

// ErrUnavailable is an exported constant or variable used by the validation engine.
//
// Implementations wrap it around every infrastructure failure so callers can
// distinguish "the store said no" from "the store could not answer" with
// errors.Is, never by inspecting error shape.
var ErrUnavailable = errors.New("record store unavailable")

// Store is the system-of-record collaborator consumed by the validation
// engine: one combined read per cache miss, one write per activity flush.
type Store interface {
	// GetSessionWithUser fetches a session row together with its owning
	// user and the user's profile/security fragments in a single round
	// trip. Returns ErrSessionNotFound when no session row exists and an
	// error wrapping ErrUnavailable on infrastructure failure.
	GetSessionWithUser(ctx context.Context, sessionID string) (*SessionWithUser, error)

	// TouchSession updates a session's last-active timestamp. Missing rows
	// are not an error; the write is best-effort by contract.
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
}
