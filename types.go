package authgate

import (
	"io"
	"time"

	internalaudit "github.com/hollowaylabs/authgate/internal/audit"
	"github.com/hollowaylabs/authgate/store"
)

// AuthUserRecord is the joined account record carried through the cache
// tiers and returned on successful validation.
type AuthUserRecord = store.AuthUserRecord

// SessionRecord is the durable session row read from the system of record.
type SessionRecord = store.SessionRecord

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus = store.AccountStatus

const (
	// AccountActive is an exported constant or variable used by the validation engine.
	AccountActive = store.AccountActive
	// AccountSuspended is an exported constant or variable used by the validation engine.
	AccountSuspended = store.AccountSuspended
	// AccountBanned is an exported constant or variable used by the validation engine.
	AccountBanned = store.AccountBanned
	// AccountDeactivated is an exported constant or variable used by the validation engine.
	AccountDeactivated = store.AccountDeactivated
	// AccountDeleted is an exported constant or variable used by the validation engine.
	AccountDeleted = store.AccountDeleted
)

// ValidationResult is returned by [Engine.ValidateAndGetUser]. Valid
// reports whether the session is usable; User is populated only when Valid
// is true. When Valid is false, Reason carries the stable human-readable
// rejection reason and Err the matching sentinel, so callers can branch
// with errors.Is without parsing strings.
type ValidationResult struct {
	Valid  bool
	User   *AuthUserRecord
	Reason string
	Err    error
}

// Identity is the authenticated caller extracted by [Engine.Validate]:
// the verified token claims bound to the validated session and user.
type Identity struct {
	UserID    string
	SessionID string
	Role      string
	User      *AuthUserRecord
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessDecision is returned by [CheckAccess]. Allowed reports whether the
// account may proceed; on denial Reason carries the user-facing message
// and Cause the sentinel classifying it.
type AccessDecision struct {
	Allowed bool
	Reason  string
	Cause   error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// FanOutSink is an [AuditSink] that forwards each event to every member
// sink.
type FanOutSink = internalaudit.FanOutSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewFanOutSink creates a [FanOutSink] over the given sinks.
func NewFanOutSink(sinks ...AuditSink) *FanOutSink {
	return internalaudit.NewFanOutSink(sinks...)
}
