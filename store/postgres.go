package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionWithUserQuery = `
SELECT
    s.id, s.user_id, s.revoked, s.expires_at, s.created_at, s.last_active_at,
    u.id, u.public_id, u.email, u.username, u.display_name, u.role, u.status,
    u.email_verified, u.deleted_at, u.created_at,
    p.avatar_url, p.bio, p.locale, p.timezone,
    sec.locked_until, sec.force_logout_after, sec.failed_login_count
FROM sessions s
LEFT JOIN users u ON u.id = s.user_id
LEFT JOIN user_profiles p ON p.user_id = u.id
LEFT JOIN user_security sec ON sec.user_id = u.id
WHERE s.id = $1`

const touchSessionQuery = `UPDATE sessions SET last_active_at = $2 WHERE id = $1`

// Postgres is a [Store] backed by a pgx connection pool. The session, user,
// profile, and security fragments are fetched with one joined query so a
// full cache miss costs exactly one round trip.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres describes the newpostgres operation and its observable behavior.
//
// NewPostgres may return an error when input validation, dependency calls, or security checks fail.
// NewPostgres does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// GetSessionWithUser describes the getsessionwithuser operation and its observable behavior.
//
// GetSessionWithUser may return an error when input validation, dependency calls, or security checks fail.
// GetSessionWithUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Postgres) GetSessionWithUser(ctx context.Context, sessionID string) (*SessionWithUser, error) {
	row := p.pool.QueryRow(ctx, sessionWithUserQuery, sessionID)

	var (
		sess SessionRecord

		userID        *int64
		publicID      *string
		email         *string
		username      *string
		displayName   *string
		role          *string
		status        *string
		emailVerified *bool
		deletedAt     *time.Time
		userCreatedAt *time.Time

		avatarURL *string
		bio       *string
		locale    *string
		timezone  *string

		lockedUntil      *time.Time
		forceLogoutAfter *time.Time
		failedLoginCount *int
	)

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Revoked, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastActiveAt,
		&userID, &publicID, &email, &username, &displayName, &role, &status,
		&emailVerified, &deletedAt, &userCreatedAt,
		&avatarURL, &bio, &locale, &timezone,
		&lockedUntil, &forceLogoutAfter, &failedLoginCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result := &SessionWithUser{Session: &sess}
	if userID == nil {
		return result, nil
	}

	user := &AuthUserRecord{
		ID:        *userID,
		PublicID:  deref(publicID),
		Email:     deref(email),
		Username:  deref(username),
		Role:      deref(role),
		Status:    AccountStatus(deref(status)),
		DeletedAt: deletedAt,
	}
	if displayName != nil {
		user.DisplayName = *displayName
	}
	if emailVerified != nil {
		user.EmailVerified = *emailVerified
	}
	if userCreatedAt != nil {
		user.CreatedAt = *userCreatedAt
	}

	if avatarURL != nil || bio != nil || locale != nil || timezone != nil {
		user.Profile = &UserProfile{
			AvatarURL: deref(avatarURL),
			Bio:       deref(bio),
			Locale:    deref(locale),
			Timezone:  deref(timezone),
		}
	}
	if lockedUntil != nil || forceLogoutAfter != nil || failedLoginCount != nil {
		user.Security = &UserSecurity{
			LockedUntil:      lockedUntil,
			ForceLogoutAfter: forceLogoutAfter,
		}
		if failedLoginCount != nil {
			user.Security.FailedLoginCount = *failedLoginCount
		}
	}

	result.User = user
	return result, nil
}

// TouchSession describes the touchsession operation and its observable behavior.
//
// TouchSession may return an error when input validation, dependency calls, or security checks fail.
// TouchSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Postgres) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	if _, err := p.pool.Exec(ctx, touchSessionQuery, sessionID, at); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
