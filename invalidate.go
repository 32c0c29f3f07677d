package authgate

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

// InvalidateSessionCache drops the cached validity and combined entries
// for one session. Call it after revoking a session so the next request
// re-reads the system of record instead of serving a stale verdict.
//
// Best-effort: a cache failure is logged and counted, never returned.
// The TTLs bound the staleness window if the delete is lost.
func (e *Engine) InvalidateSessionCache(ctx context.Context, sessionID string) {
	if e == nil || e.closed.Load() || sessionID == "" {
		return
	}

	if err := e.cache.DeleteSession(ctx, sessionID); err != nil {
		e.metricInc(MetricCacheError)
		e.log.Warn("session cache invalidation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventInvalidateSession, true, "", sessionID, nil, nil)
}

// InvalidateUserAuthCache drops the cached user snapshot for a public ID.
// Call it after a profile, role, or status change. Combined entries keyed
// by session are left to expire on their short TTL.
//
// Best-effort: a cache failure is logged and counted, never returned.
func (e *Engine) InvalidateUserAuthCache(ctx context.Context, publicID string) {
	if e == nil || e.closed.Load() || publicID == "" {
		return
	}

	if err := e.cache.DeleteUserSnapshot(ctx, publicID); err != nil {
		e.metricInc(MetricCacheError)
		e.log.Warn("user cache invalidation failed",
			zap.String("public_id", publicID),
			zap.Error(err),
		)
	}
	e.metricInc(MetricUserInvalidated)
	e.emitAudit(ctx, auditEventInvalidateUser, true, publicID, "", nil, nil)
}

// InvalidateAllUserAuthCaches drops the user snapshot plus every listed
// session's validity and combined entries in one round trip. Call it on
// force-logout or account-level security actions, passing the user's
// known session IDs.
//
// Best-effort: a cache failure is logged and counted, never returned.
func (e *Engine) InvalidateAllUserAuthCaches(ctx context.Context, publicID string, sessionIDs []string) {
	if e == nil || e.closed.Load() || publicID == "" {
		return
	}

	if err := e.cache.DeleteAllForUser(ctx, publicID, sessionIDs); err != nil {
		e.metricInc(MetricCacheError)
		e.log.Warn("full user cache invalidation failed",
			zap.String("public_id", publicID),
			zap.Int("sessions", len(sessionIDs)),
			zap.Error(err),
		)
	}
	e.metricInc(MetricFullInvalidation)
	e.emitAudit(ctx, auditEventInvalidateAll, true, publicID, "", nil, func() map[string]string {
		return map[string]string{
			"sessions": strconv.Itoa(len(sessionIDs)),
		}
	})
}
