package store

import "time"

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus string

const (
	// AccountActive is an exported constant or variable used by the validation engine.
	AccountActive AccountStatus = "ACTIVE"
	// AccountSuspended is an exported constant or variable used by the validation engine.
	AccountSuspended AccountStatus = "SUSPENDED"
	// AccountBanned is an exported constant or variable used by the validation engine.
	AccountBanned AccountStatus = "BANNED"
	// AccountDeactivated is an exported constant or variable used by the validation engine.
	AccountDeactivated AccountStatus = "DEACTIVATED"
	// AccountDeleted is an exported constant or variable used by the validation engine.
	AccountDeleted AccountStatus = "DELETED"
)

// SessionRecord is the durable session row: created at login, flagged by
// revoke/logout, touched by the activity tracker.
type SessionRecord struct {
	ID           string     `json:"id"`
	UserID       int64      `json:"userId"`
	Revoked      bool       `json:"revoked"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActiveAt *time.Time `json:"lastActiveAt,omitempty"`
}

// UserProfile is the optional profile fragment of an [AuthUserRecord].
type UserProfile struct {
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// UserSecurity is the optional security fragment of an [AuthUserRecord].
// ForceLogoutAfter invalidates every credential issued before it, without
// touching individual session rows.
type UserSecurity struct {
	LockedUntil      *time.Time `json:"lockedUntil,omitempty"`
	ForceLogoutAfter *time.Time `json:"forceLogoutAfter,omitempty"`
	FailedLoginCount int        `json:"failedLoginCount,omitempty"`
}

// AuthUserRecord is the durable projection of a user needed for
// authorization decisions. Accounts are never deleted in place; DeletedAt
// marks a soft delete.
type AuthUserRecord struct {
	ID            int64         `json:"id"`
	PublicID      string        `json:"publicId"`
	Email         string        `json:"email"`
	Username      string        `json:"username"`
	DisplayName   string        `json:"displayName,omitempty"`
	Role          string        `json:"role"`
	Status        AccountStatus `json:"status"`
	EmailVerified bool          `json:"emailVerified"`
	DeletedAt     *time.Time    `json:"deletedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	Profile       *UserProfile  `json:"profile,omitempty"`
	Security      *UserSecurity `json:"security,omitempty"`
}

// SessionWithUser bundles a session row with its owning user as fetched in
// a single round trip. User is nil when the join found no owning row.
type SessionWithUser struct {
	Session *SessionRecord
	User    *AuthUserRecord
}
