package authgate

import "errors"

var (
	// ErrNoCredential is an exported constant or variable used by the validation engine.
	ErrNoCredential = errors.New("no credential provided")
	// ErrTokenInvalid is an exported constant or variable used by the validation engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrNoSessionClaim is an exported constant or variable used by the validation engine.
	ErrNoSessionClaim = errors.New("token has no session")
	// ErrSessionInvalidCached is an exported constant or variable used by the validation engine.
	ErrSessionInvalidCached = errors.New("session invalid, cached")
	// ErrSessionNotFound is an exported constant or variable used by the validation engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRevoked is an exported constant or variable used by the validation engine.
	ErrSessionRevoked = errors.New("session has been revoked")
	// ErrSessionExpired is an exported constant or variable used by the validation engine.
	ErrSessionExpired = errors.New("session has expired")
	// ErrUserNotFound is an exported constant or variable used by the validation engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserMismatch is an exported constant or variable used by the validation engine.
	ErrUserMismatch = errors.New("user mismatch")
	// ErrSessionForceLoggedOut is an exported constant or variable used by the validation engine.
	ErrSessionForceLoggedOut = errors.New("session invalidated by security action")
	// ErrAccountDeleted is an exported constant or variable used by the validation engine.
	ErrAccountDeleted = errors.New("account has been deleted")
	// ErrAccountSuspended is an exported constant or variable used by the validation engine.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountBanned is an exported constant or variable used by the validation engine.
	ErrAccountBanned = errors.New("account banned")
	// ErrAccountDeactivated is an exported constant or variable used by the validation engine.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrAccountLocked is an exported constant or variable used by the validation engine.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccessDenied is an exported constant or variable used by the validation engine.
	ErrAccessDenied = errors.New("access denied")
	// ErrBackendUnavailable is an exported constant or variable used by the validation engine.
	ErrBackendUnavailable = errors.New("authentication backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the validation engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// IsAccessDenied reports whether err is a policy denial (taxonomy class
// "access denied") as opposed to a credential or session rejection.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccountDeleted) ||
		errors.Is(err, ErrAccountSuspended) ||
		errors.Is(err, ErrAccountBanned) ||
		errors.Is(err, ErrAccountDeactivated) ||
		errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrAccessDenied)
}
