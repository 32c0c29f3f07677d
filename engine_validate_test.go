package authgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hollowaylabs/authgate/store"
)

func TestValidateAndGetUserPopulatesAndServesFromCache(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected valid, got reason %q", res.Reason)
	}
	if res.User == nil || res.User.PublicID != user.PublicID {
		t.Fatalf("unexpected user in result: %+v", res.User)
	}
	if got := records.Reads(); got != 1 {
		t.Fatalf("expected 1 store read, got %d", got)
	}

	engine.Flush()

	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected cached valid, got reason %q", res.Reason)
	}
	if got := records.Reads(); got != 1 {
		t.Fatalf("combined hit should not read the store again, reads=%d", got)
	}
	if engine.MetricsSnapshot().Counters[MetricCombinedCacheHit] == 0 {
		t.Fatal("expected a combined cache hit to be counted")
	}
}

func TestEndToEndThreeCallScenario(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	// Call 1: cold cache, one joined store read.
	if res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now()); err != nil || !res.Valid {
		t.Fatalf("call 1: valid=%v err=%v", res.Valid, err)
	}
	engine.Flush()

	// Call 2: combined hit, no store read.
	if res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now()); err != nil || !res.Valid {
		t.Fatalf("call 2: valid=%v err=%v", res.Valid, err)
	}
	if got := records.Reads(); got != 1 {
		t.Fatalf("expected 1 read after call 2, got %d", got)
	}

	// Full invalidation forces call 3 back to the store.
	engine.InvalidateAllUserAuthCaches(ctx, user.PublicID, []string{session.ID})
	if res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now()); err != nil || !res.Valid {
		t.Fatalf("call 3: valid=%v err=%v", res.Valid, err)
	}
	if got := records.Reads(); got != 2 {
		t.Fatalf("expected 2 reads after invalidation, got %d", got)
	}
}

func TestRevocationIsStickyAfterInvalidation(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	if res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now()); err != nil || !res.Valid {
		t.Fatalf("warmup: valid=%v err=%v", res.Valid, err)
	}
	engine.Flush()

	// Revoked in the store but cache not yet invalidated: the stale valid
	// verdict is served inside the TTL window.
	records.RevokeSession(session.ID)
	if res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now()); err != nil || !res.Valid {
		t.Fatalf("stale window: valid=%v err=%v", res.Valid, err)
	}
	if got := records.Reads(); got != 1 {
		t.Fatalf("stale window must not read the store, reads=%d", got)
	}

	// After invalidation the revocation is observed once at the store and
	// then served from the negative cache.
	engine.InvalidateSessionCache(ctx, session.ID)
	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("post-invalidate: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrSessionRevoked) {
		t.Fatalf("expected revoked rejection, got valid=%v err=%v", res.Valid, res.Err)
	}
	if res.Reason != ErrSessionRevoked.Error() {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	engine.Flush()

	readsBefore := records.Reads()
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("negative-cache call: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrSessionInvalidCached) {
		t.Fatalf("expected sticky cached invalidity, got valid=%v err=%v", res.Valid, res.Err)
	}
	if records.Reads() != readsBefore {
		t.Fatal("sticky invalidity must not read the store")
	}
	if engine.MetricsSnapshot().Counters[MetricNegativeCacheHit] == 0 {
		t.Fatal("expected a negative cache hit to be counted")
	}
}

func TestForceLogoutComparesTokenIssuedAt(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	cutoff := time.Now()
	records.UpdateUser(user.PublicID, func(u *store.AuthUserRecord) {
		u.Security = &store.UserSecurity{ForceLogoutAfter: &cutoff}
	})

	// A credential issued before the cutoff is invalidated.
	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, cutoff.Add(-time.Minute))
	if err != nil {
		t.Fatalf("old credential: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrSessionForceLoggedOut) {
		t.Fatalf("expected force-logout rejection, got valid=%v err=%v", res.Valid, res.Err)
	}

	// A credential issued after the cutoff passes on the same session.
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, cutoff.Add(time.Minute))
	if err != nil {
		t.Fatalf("new credential: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected credential issued after cutoff to pass, got %q", res.Reason)
	}
	engine.Flush()

	// The cutoff keeps applying on cache hits: the old credential stays
	// rejected and the new one stays valid, with no further store reads.
	reads := records.Reads()
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, cutoff.Add(-time.Minute))
	if err != nil || res.Valid || !errors.Is(res.Err, ErrSessionForceLoggedOut) {
		t.Fatalf("cached old credential: valid=%v err=%v resErr=%v", res.Valid, err, res.Err)
	}
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, cutoff.Add(time.Minute))
	if err != nil || !res.Valid {
		t.Fatalf("cached new credential: valid=%v err=%v reason=%q", res.Valid, err, res.Reason)
	}
	if records.Reads() != reads {
		t.Fatalf("cached verdicts must not read the store, reads went %d -> %d", reads, records.Reads())
	}

	// An unknown issue time is treated as predating the cutoff.
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Time{})
	if err != nil || res.Valid || !errors.Is(res.Err, ErrSessionForceLoggedOut) {
		t.Fatalf("zero issuedAt: valid=%v err=%v resErr=%v", res.Valid, err, res.Err)
	}
}

func TestValidateAllowsTokenMintedAfterForceLogout(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	// "Log out everywhere" happened in the past; a token minted since
	// then must be accepted even though the cutoff is still set.
	past := time.Now().Add(-time.Minute)
	records.UpdateUser(user.PublicID, func(u *store.AuthUserRecord) {
		u.Security = &store.UserSecurity{ForceLogoutAfter: &past}
	})

	token, err := engine.jwt.CreateAccess(user.PublicID, session.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := engine.Validate(ctx, token); err != nil {
		t.Fatalf("token minted after cutoff must validate, got %v", err)
	}

	// A later security action invalidates that same token.
	future := time.Now().Add(time.Hour)
	records.UpdateUser(user.PublicID, func(u *store.AuthUserRecord) {
		u.Security = &store.UserSecurity{ForceLogoutAfter: &future}
	})
	engine.InvalidateAllUserAuthCaches(ctx, user.PublicID, []string{session.ID})

	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrSessionForceLoggedOut) {
		t.Fatalf("expected ErrSessionForceLoggedOut after new cutoff, got %v", err)
	}
}

func TestInvalidMarkerWinsOverFreshSnapshot(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	// No combined entry: only the individual tiers are populated, with
	// an explicit invalid marker next to a perfectly fresh snapshot.
	if err := engine.cache.SetSessionValidity(ctx, session.ID, false); err != nil {
		t.Fatalf("seed validity: %v", err)
	}
	snapshot := user
	if err := engine.cache.SetUserSnapshot(ctx, &snapshot); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrSessionInvalidCached) {
		t.Fatalf("invalid marker must win over the snapshot, got valid=%v err=%v", res.Valid, res.Err)
	}
	if got := records.Reads(); got != 0 {
		t.Fatalf("cached invalidity must not read the store, reads=%d", got)
	}
	if engine.MetricsSnapshot().Counters[MetricNegativeCacheHit] == 0 {
		t.Fatal("expected a negative cache hit to be counted")
	}
}

func TestIndividualTierHitRepopulatesCombined(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	// Individual tiers only, as after a combined-entry TTL expiry.
	if err := engine.cache.SetSessionValidity(ctx, session.ID, true); err != nil {
		t.Fatalf("seed validity: %v", err)
	}
	snapshot := user
	if err := engine.cache.SetUserSnapshot(ctx, &snapshot); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected individual-tier hit to validate, got %q", res.Reason)
	}
	if got := records.Reads(); got != 0 {
		t.Fatalf("individual-tier hit must not read the store, reads=%d", got)
	}
	if engine.MetricsSnapshot().Counters[MetricIndividualCacheHit] == 0 {
		t.Fatal("expected an individual cache hit to be counted")
	}

	// The hit repopulates the combined tier off the request path.
	engine.Flush()
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil || !res.Valid {
		t.Fatalf("repopulated call: valid=%v err=%v", res.Valid, err)
	}
	if got := records.Reads(); got != 0 {
		t.Fatalf("combined hit must not read the store, reads=%d", got)
	}
	if engine.MetricsSnapshot().Counters[MetricCombinedCacheHit] == 0 {
		t.Fatal("expected the second call to hit the combined tier")
	}
}

func TestUserMismatchDoesNotPoisonSession(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	res, err := engine.ValidateAndGetUser(ctx, session.ID, "someone-else", time.Now())
	if err != nil {
		t.Fatalf("mismatch call: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrUserMismatch) {
		t.Fatalf("expected mismatch rejection, got valid=%v err=%v", res.Valid, res.Err)
	}
	engine.Flush()

	// The mismatch must not have cached an invalid verdict against the
	// session's real owner.
	res, err = engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("owner call: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected owner to validate, got %q", res.Reason)
	}
}

func TestExpiredAndMissingSessions(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user := records.AddUser(store.AuthUserRecord{
		Email:  "bob@example.com",
		Role:   "user",
		Status: store.AccountActive,
	})
	expired := records.CreateSession(user.ID, time.Now().Add(-time.Minute))
	ctx := context.Background()

	res, err := engine.ValidateAndGetUser(ctx, expired.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrSessionExpired) {
		t.Fatalf("expected expiry rejection, got valid=%v err=%v", res.Valid, res.Err)
	}

	res, err = engine.ValidateAndGetUser(ctx, "no-such-session", user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrSessionNotFound) {
		t.Fatalf("expected not-found rejection, got valid=%v err=%v", res.Valid, res.Err)
	}

	res, err = engine.ValidateAndGetUser(ctx, "", user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("empty sid: %v", err)
	}
	if res.Valid || !errors.Is(res.Err, ErrNoSessionClaim) {
		t.Fatalf("expected no-session rejection, got valid=%v err=%v", res.Valid, res.Err)
	}
}

func TestCacheDownStillValidatesFromStore(t *testing.T) {
	engine, records, mr := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	mr.Close()

	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("cache down: %v", err)
	}
	if !res.Valid {
		t.Fatalf("cache outage must degrade to store fallback, got %q", res.Reason)
	}
	if engine.MetricsSnapshot().Counters[MetricCacheError] == 0 {
		t.Fatal("expected cache errors to be counted")
	}
}

func TestStoreOutageSurfacesBackendUnavailable(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	records.SetReadError(store.ErrUnavailable)

	_, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	engine.Flush()

	// An infrastructure error must never be cached as an invalid session.
	records.SetReadError(nil)
	res, err := engine.ValidateAndGetUser(ctx, session.ID, user.PublicID, time.Now())
	if err != nil {
		t.Fatalf("after recovery: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected recovery to validate, got %q", res.Reason)
	}
}

func TestValidateFullPath(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	token, err := engine.jwt.CreateAccess(user.PublicID, session.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	identity, err := engine.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if identity.UserID != user.PublicID || identity.SessionID != session.ID {
		t.Fatalf("identity binding broken: %+v", identity)
	}
	if identity.User == nil || identity.User.Email != user.Email {
		t.Fatalf("expected loaded user record, got %+v", identity.User)
	}

	// Activity is recorded off the request path.
	engine.Flush()
	if records.LastActiveAt(session.ID) == nil {
		t.Fatal("expected last-active timestamp after validate")
	}

	if _, err := engine.Validate(ctx, ""); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if _, err := engine.Validate(ctx, "not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateDeniesSuspendedAccount(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)
	ctx := context.Background()

	records.UpdateUser(user.PublicID, func(u *store.AuthUserRecord) {
		u.Status = store.AccountSuspended
	})

	token, err := engine.jwt.CreateAccess(user.PublicID, session.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = engine.Validate(ctx, token)
	if !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}
	if !IsAccessDenied(err) {
		t.Fatal("suspension must classify as access denied")
	}
	if engine.MetricsSnapshot().Counters[MetricAccessDenied] == 0 {
		t.Fatal("expected access-denied metric")
	}
}

func TestClosedEngineRejectsCalls(t *testing.T) {
	engine, records, _ := newTestEngine(t)
	user, session := seedActiveUser(t, records)

	engine.Close()

	if _, err := engine.ValidateAndGetUser(context.Background(), session.ID, user.PublicID, time.Now()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Validate(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
