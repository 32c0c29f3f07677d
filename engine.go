package authgate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hollowaylabs/authgate/activity"
	"github.com/hollowaylabs/authgate/cache"
	"github.com/hollowaylabs/authgate/internal/background"
	"github.com/hollowaylabs/authgate/jwt"
	"github.com/hollowaylabs/authgate/store"
)

// Engine is the authenticated-request validation engine. It verifies
// bearer credentials, resolves the session and user through the tiered
// cache with a database fallback, applies account access policy, and
// exposes explicit cache invalidation.
//
// An Engine is created through [Builder.Build] and is safe for concurrent
// use. Close releases the background worker, the audit dispatcher, and
// the database pool when the engine owns it.
type Engine struct {
	config  Config
	jwt     *jwt.Manager
	cache   *cache.Tiered
	records store.Store
	runner  *background.Runner
	tracker *activity.Tracker
	audit   *auditDispatcher
	metrics *Metrics
	log     *zap.Logger

	// pool is non-nil only when Build opened the database connection
	// itself from Database.URL.
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// ValidateAndGetUser resolves a session ID and expected user public ID to
// a validity verdict plus the joined user record, consulting the cache
// tiers in order: combined entry, then the two individual tiers probed
// concurrently, then one joined database read.
//
// issuedAt is the credential's issued-at claim. When the user carries a
// force-logout cutoff, any credential issued before it is rejected and
// credentials issued after it pass; a zero issuedAt is treated as
// predating every cutoff. The comparison runs against the resolved user
// at every tier, so a cached positive entry never revives an
// already-invalidated credential.
//
// The returned error is non-nil only when the system of record is
// unreachable and no cached verdict exists ([ErrBackendUnavailable]).
// Every policy rejection is reported through the result: Valid false,
// Reason set, and Err carrying the matching sentinel. Cache failures are
// logged and degrade to misses; they never produce a denial.
//
//	Performance: 1 Redis GET on the hot path.
func (e *Engine) ValidateAndGetUser(ctx context.Context, sessionID, publicID string, issuedAt time.Time) (ValidationResult, error) {
	if e == nil || e.closed.Load() {
		return ValidationResult{}, ErrEngineNotReady
	}

	start := time.Now()
	res, err := e.validateSessionUser(ctx, sessionID, publicID, issuedAt)
	e.metricObserve(MetricValidateLatency, time.Since(start))

	if err != nil {
		e.metricInc(MetricStoreError)
		e.emitAudit(ctx, auditEventValidateBackendError, false, publicID, sessionID, err, nil)
		return ValidationResult{}, err
	}

	if res.Valid {
		e.metricInc(MetricValidateSuccess)
	} else {
		e.metricInc(MetricValidateRejected)
		e.emitAudit(ctx, auditEventValidateRejected, false, publicID, sessionID, res.Err, nil)
	}
	return res, nil
}

func (e *Engine) validateSessionUser(ctx context.Context, sessionID, publicID string, issuedAt time.Time) (ValidationResult, error) {
	if sessionID == "" {
		return reject(ErrNoSessionClaim), nil
	}

	// Tier 1: combined entry. Authoritative when present.
	entry, err := e.cache.GetCombined(ctx, sessionID)
	switch {
	case err == nil:
		if !entry.SessionValid {
			e.metricInc(MetricNegativeCacheHit)
			return reject(ErrSessionInvalidCached), nil
		}
		if entry.User != nil {
			if entry.User.PublicID != publicID {
				return reject(ErrUserMismatch), nil
			}
			if forceLoggedOut(entry.User, issuedAt) {
				return reject(ErrSessionForceLoggedOut), nil
			}
			e.metricInc(MetricCombinedCacheHit)
			return accept(entry.User), nil
		}
		// Valid marker without a user snapshot: fall through.
	case errors.Is(err, redis.Nil):
		// miss
	default:
		e.cacheFault("combined get", sessionID, err)
	}

	// Tier 2: individual tiers, probed concurrently.
	var (
		wg        sync.WaitGroup
		validity  string
		snapshot  *store.AuthUserRecord
		validErr  error
		snapErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		validity, validErr = e.cache.GetSessionValidity(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		snapshot, snapErr = e.cache.GetUserSnapshot(ctx, publicID)
	}()
	wg.Wait()

	if validErr != nil && !errors.Is(validErr, redis.Nil) {
		e.cacheFault("session validity get", sessionID, validErr)
		validity = ""
	}
	if snapErr != nil && !errors.Is(snapErr, redis.Nil) {
		e.cacheFault("user snapshot get", sessionID, snapErr)
		snapshot = nil
	}

	if validity == cache.ValidityInvalid {
		e.metricInc(MetricNegativeCacheHit)
		return reject(ErrSessionInvalidCached), nil
	}
	if validity == cache.ValidityValid && snapshot != nil && snapshot.PublicID == publicID {
		if forceLoggedOut(snapshot, issuedAt) {
			return reject(ErrSessionForceLoggedOut), nil
		}
		e.metricInc(MetricIndividualCacheHit)
		user := snapshot
		e.detach(func(ctx context.Context) {
			if err := e.cache.SetCombined(ctx, sessionID, &cache.CombinedEntry{User: user, SessionValid: true}); err != nil {
				e.cacheFault("combined repopulate", sessionID, err)
			}
		})
		return accept(snapshot), nil
	}

	// Tier 3: one joined read from the system of record.
	e.metricInc(MetricStoreFallback)
	return e.validateFromStore(ctx, sessionID, publicID, issuedAt)
}

func (e *Engine) validateFromStore(ctx context.Context, sessionID, publicID string, issuedAt time.Time) (ValidationResult, error) {
	swu, err := e.records.GetSessionWithUser(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			e.cacheSessionInvalid(sessionID, false)
			return reject(ErrSessionNotFound), nil
		}
		return ValidationResult{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	now := time.Now()
	session := swu.Session

	if session.Revoked {
		e.cacheSessionInvalid(sessionID, true)
		return reject(ErrSessionRevoked), nil
	}
	if !session.ExpiresAt.After(now) {
		e.cacheSessionInvalid(sessionID, false)
		return reject(ErrSessionExpired), nil
	}
	if swu.User == nil {
		e.cacheSessionInvalid(sessionID, false)
		return reject(ErrUserNotFound), nil
	}
	if swu.User.PublicID != publicID {
		// The session may be perfectly valid for its real owner; the
		// mismatch is a credential problem, so nothing is cached.
		return reject(ErrUserMismatch), nil
	}
	if forceLoggedOut(swu.User, issuedAt) {
		// The session row may still be serving credentials minted after
		// the cutoff, so the verdict is per-credential and nothing is
		// cached as invalid.
		return reject(ErrSessionForceLoggedOut), nil
	}

	user := swu.User
	e.detach(func(ctx context.Context) {
		if err := e.cache.SetSessionValidity(ctx, sessionID, true); err != nil {
			e.cacheFault("session validity set", sessionID, err)
		}
		if err := e.cache.SetUserSnapshot(ctx, user); err != nil {
			e.cacheFault("user snapshot set", sessionID, err)
		}
		if err := e.cache.SetCombined(ctx, sessionID, &cache.CombinedEntry{User: user, SessionValid: true}); err != nil {
			e.cacheFault("combined set", sessionID, err)
		}
	})

	return accept(user), nil
}

// Validate is the full request path: it verifies the bearer credential,
// resolves session and user, applies account access policy, and records
// session activity. On success the returned [Identity] binds the verified
// claims to the loaded user record.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, token string) (*Identity, error) {
	if e == nil || e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		return nil, ErrNoCredential
	}

	claims, err := e.jwt.ParseAccess(token)
	if err != nil {
		e.metricInc(MetricValidateRejected)
		e.emitAudit(ctx, auditEventValidateRejected, false, "", "", ErrTokenInvalid, nil)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.SID == "" {
		e.metricInc(MetricValidateRejected)
		e.emitAudit(ctx, auditEventValidateRejected, false, claims.Subject, "", ErrNoSessionClaim, nil)
		return nil, ErrNoSessionClaim
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	res, err := e.ValidateAndGetUser(ctx, claims.SID, claims.Subject, issuedAt)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, res.Err
	}

	decision := CheckAccess(res.User, time.Now())
	if !decision.Allowed {
		e.metricInc(MetricAccessDenied)
		e.emitAudit(ctx, auditEventAccessDenied, false, claims.Subject, claims.SID, decision.Cause, nil)
		return nil, decision.Cause
	}

	e.TouchActivity(claims.SID)
	e.emitAudit(ctx, auditEventValidateSuccess, true, claims.Subject, claims.SID, nil, nil)

	identity := &Identity{
		UserID:    res.User.PublicID,
		SessionID: claims.SID,
		Role:      res.User.Role,
		User:      res.User,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// TouchActivity records debounced last-active activity for a session.
// Safe to call on every request; within the flush interval it is a no-op.
func (e *Engine) TouchActivity(sessionID string) {
	if e == nil || e.tracker == nil {
		return
	}
	e.tracker.Touch(sessionID)
}

// AuditDropped reports how many audit events were discarded because of
// dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Flush blocks until every detached cache write and activity flush
// submitted before the call has run. Intended for tests and shutdown.
func (e *Engine) Flush() {
	if e == nil {
		return
	}
	e.runner.Flush()
}

// Close stops background workers and releases owned resources. Safe to
// call more than once; engine methods return [ErrEngineNotReady] after.
func (e *Engine) Close() {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.runner.Close()
	e.audit.Close()
	if e.pool != nil {
		e.pool.Close()
	}
	_ = e.log.Sync()
}

// detach schedules a fire-and-forget task on the background runner,
// falling back to inline execution when the runner is gone (tests that
// build a bare engine).
func (e *Engine) detach(task background.Task) {
	if e.runner != nil {
		e.runner.Submit(task)
		return
	}
	task(context.Background())
}

// cacheSessionInvalid records a negative verdict for a session. combined
// controls whether the combined tier gets an explicit invalid entry as
// well; that is reserved for revocation-class outcomes that must stay
// sticky across all tiers.
func (e *Engine) cacheSessionInvalid(sessionID string, combined bool) {
	e.detach(func(ctx context.Context) {
		if err := e.cache.SetSessionValidity(ctx, sessionID, false); err != nil {
			e.cacheFault("session validity set", sessionID, err)
		}
		if combined {
			if err := e.cache.SetCombined(ctx, sessionID, &cache.CombinedEntry{SessionValid: false}); err != nil {
				e.cacheFault("combined set", sessionID, err)
			}
		}
	})
}

func (e *Engine) cacheFault(op, sessionID string, err error) {
	e.metricInc(MetricCacheError)
	e.log.Warn("cache operation failed, treating as miss",
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	e.metrics.Observe(id, d)
}

// forceLoggedOut reports whether a credential issued at issuedAt falls
// before the user's force-logout cutoff. A zero issuedAt predates every
// cutoff.
func forceLoggedOut(user *store.AuthUserRecord, issuedAt time.Time) bool {
	sec := user.Security
	return sec != nil && sec.ForceLogoutAfter != nil && issuedAt.Before(*sec.ForceLogoutAfter)
}

func reject(cause error) ValidationResult {
	return ValidationResult{
		Valid:  false,
		Reason: cause.Error(),
		Err:    cause,
	}
}

func accept(user *store.AuthUserRecord) ValidationResult {
	return ValidationResult{
		Valid: true,
		User:  user,
	}
}
