package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hollowaylabs/authgate/store"
)

// ErrUnavailable is an exported constant or variable used by the validation engine.
var ErrUnavailable = errors.New("cache unavailable")

// ErrCorruptEntry is returned when a cached payload exists but does not parse.
var ErrCorruptEntry = errors.New("corrupt cache entry")

const (
	// ValidityValid is an exported constant or variable used by the validation engine.
	ValidityValid = "valid"
	// ValidityInvalid is an exported constant or variable used by the validation engine.
	ValidityInvalid = "invalid"
)

// CombinedEntry bundles a user snapshot with session validity so the hot
// path resolves both in one GET. When present it is authoritative over the
// individual tiers.
type CombinedEntry struct {
	User         *store.AuthUserRecord `json:"user"`
	SessionValid bool                  `json:"sessionValid"`
}

// Tiered is the Redis-backed cache with three independent tiers keyed by
// session ID or user public ID:
//
//   - session validity: "valid" | "invalid", short TTL
//   - user snapshot: serialized AuthUserRecord, longer TTL
//   - combined: CombinedEntry, short TTL
//
// Entries are disposable; a miss is redis.Nil and never signals denial.
type Tiered struct {
	redis       redis.UniversalClient
	prefix      string
	sessionTTL  time.Duration
	userTTL     time.Duration
	combinedTTL time.Duration
}

// New creates a [Tiered] cache over the given Redis client. prefix sets the
// key namespace; the three TTLs bound each tier's staleness window.
func New(
	rdb redis.UniversalClient,
	prefix string,
	sessionTTL time.Duration,
	userTTL time.Duration,
	combinedTTL time.Duration,
) *Tiered {
	return &Tiered{
		redis:       rdb,
		prefix:      prefix,
		sessionTTL:  sessionTTL,
		userTTL:     userTTL,
		combinedTTL: combinedTTL,
	}
}

func (t *Tiered) sessionKey(sessionID string) string {
	return t.prefix + ":sv:" + sessionID
}

func (t *Tiered) userKey(publicID string) string {
	return t.prefix + ":us:" + publicID
}

func (t *Tiered) combinedKey(sessionID string) string {
	return t.prefix + ":cm:" + sessionID
}

// GetCombined fetches the combined tier entry for a session. Returns
// redis.Nil on a miss and an error wrapping [ErrCorruptEntry] when the
// stored payload does not parse.
//
//	Performance: 1 Redis GET.
func (t *Tiered) GetCombined(ctx context.Context, sessionID string) (*CombinedEntry, error) {
	data, err := t.redis.Get(ctx, t.combinedKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var entry CombinedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return &entry, nil
}

// SetCombined writes the combined tier entry for a session.
func (t *Tiered) SetCombined(ctx context.Context, sessionID string, entry *CombinedEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := t.redis.Set(ctx, t.combinedKey(sessionID), data, t.combinedTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetSessionValidity fetches the session-validity marker. Returns redis.Nil
// on a miss.
func (t *Tiered) GetSessionValidity(ctx context.Context, sessionID string) (string, error) {
	marker, err := t.redis.Get(ctx, t.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return marker, nil
}

// SetSessionValidity writes the session-validity marker.
func (t *Tiered) SetSessionValidity(ctx context.Context, sessionID string, valid bool) error {
	marker := ValidityInvalid
	if valid {
		marker = ValidityValid
	}
	if err := t.redis.Set(ctx, t.sessionKey(sessionID), marker, t.sessionTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetUserSnapshot fetches the cached user projection by public ID. Returns
// redis.Nil on a miss.
func (t *Tiered) GetUserSnapshot(ctx context.Context, publicID string) (*store.AuthUserRecord, error) {
	data, err := t.redis.Get(ctx, t.userKey(publicID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var user store.AuthUserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return &user, nil
}

// SetUserSnapshot writes the cached user projection keyed by public ID.
func (t *Tiered) SetUserSnapshot(ctx context.Context, user *store.AuthUserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := t.redis.Set(ctx, t.userKey(user.PublicID), data, t.userTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteSession removes a session's validity and combined entries.
//
//	Performance: 1 Redis DEL covering both keys.
func (t *Tiered) DeleteSession(ctx context.Context, sessionID string) error {
	keys := []string{t.sessionKey(sessionID), t.combinedKey(sessionID)}
	if err := t.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteUserSnapshot removes a user's snapshot entry.
func (t *Tiered) DeleteUserSnapshot(ctx context.Context, publicID string) error {
	if err := t.redis.Del(ctx, t.userKey(publicID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes the user snapshot plus the validity and combined
// entries of every listed session in one DEL.
func (t *Tiered) DeleteAllForUser(ctx context.Context, publicID string, sessionIDs []string) error {
	keys := make([]string, 0, 1+2*len(sessionIDs))
	keys = append(keys, t.userKey(publicID))
	for _, sid := range sessionIDs {
		keys = append(keys, t.sessionKey(sid), t.combinedKey(sid))
	}
	if err := t.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (t *Tiered) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := t.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
