package authgate

import (
	"fmt"
	"time"
)

// CheckAccess evaluates account-level access policy over a user record.
// It is pure: no I/O, no clock other than the supplied now, and no
// mutation of the record. Ordering is fixed so callers always see the
// most severe applicable denial: deletion, then status, then lock.
//
// CheckAccess may return an error when input validation, dependency calls, or security checks fail.
// CheckAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CheckAccess(user *AuthUserRecord, now time.Time) AccessDecision {
	if user == nil {
		return deny(ErrUserNotFound)
	}

	if user.Status == AccountDeleted || user.DeletedAt != nil {
		return deny(ErrAccountDeleted)
	}

	switch user.Status {
	case AccountSuspended:
		return deny(ErrAccountSuspended)
	case AccountBanned:
		return deny(ErrAccountBanned)
	case AccountDeactivated:
		return deny(ErrAccountDeactivated)
	}

	if user.Security != nil && user.Security.LockedUntil != nil && user.Security.LockedUntil.After(now) {
		cause := fmt.Errorf("%w until %s", ErrAccountLocked, user.Security.LockedUntil.UTC().Format(time.RFC3339))
		return AccessDecision{
			Allowed: false,
			Reason:  cause.Error(),
			Cause:   cause,
		}
	}

	return AccessDecision{Allowed: true}
}

func deny(cause error) AccessDecision {
	return AccessDecision{
		Allowed: false,
		Reason:  cause.Error(),
		Cause:   cause,
	}
}
