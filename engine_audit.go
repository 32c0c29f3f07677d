package authgate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventValidateSuccess      = "validate_success"
	auditEventValidateRejected     = "validate_rejected"
	auditEventValidateBackendError = "validate_backend_error"
	auditEventAccessDenied         = "access_denied"
	auditEventInvalidateSession    = "invalidate_session"
	auditEventInvalidateUser       = "invalidate_user"
	auditEventInvalidateAll        = "invalidate_all"
)

// AuditErrorCode defines a public type used by authgate APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrNoCredential     AuditErrorCode = "no_credential"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrSessionInvalid   AuditErrorCode = "session_invalid"
	auditErrSessionNotFound  AuditErrorCode = "session_not_found"
	auditErrSessionRevoked   AuditErrorCode = "session_revoked"
	auditErrSessionExpired   AuditErrorCode = "session_expired"
	auditErrForceLogout      AuditErrorCode = "force_logout"
	auditErrUserNotFound     AuditErrorCode = "user_not_found"
	auditErrUserMismatch     AuditErrorCode = "user_mismatch"
	auditErrAccountDenied    AuditErrorCode = "account_denied"
	auditErrAccountLocked    AuditErrorCode = "account_locked"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	publicID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		PublicID:  publicID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNoCredential):
		return auditErrNoCredential
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrNoSessionClaim):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionInvalidCached):
		return auditErrSessionInvalid
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionRevoked):
		return auditErrSessionRevoked
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrSessionForceLoggedOut):
		return auditErrForceLogout
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrUserMismatch):
		return auditErrUserMismatch
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrAccountDeleted),
		errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrAccountBanned),
		errors.Is(err, ErrAccountDeactivated),
		errors.Is(err, ErrAccessDenied):
		return auditErrAccountDenied
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
