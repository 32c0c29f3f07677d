package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process [Store] for tests and examples. It mirrors the
// Postgres contract, including the typed unavailable error, and counts
// combined reads so callers can assert cache behavior.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
	users    map[int64]*AuthUserRecord
	byPublic map[string]int64
	nextID   int64

	reads   int64
	readErr error
}

// NewMemory describes the newmemory operation and its observable behavior.
//
// NewMemory may return an error when input validation, dependency calls, or security checks fail.
// NewMemory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*SessionRecord),
		users:    make(map[int64]*AuthUserRecord),
		byPublic: make(map[string]int64),
	}
}

// AddUser inserts a user row, assigning the internal ID (and a public ID
// when absent). The stored record is a copy.
func (m *Memory) AddUser(u AuthUserRecord) AuthUserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	u.ID = m.nextID
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	stored := u
	m.users[u.ID] = &stored
	m.byPublic[u.PublicID] = u.ID
	return u
}

// CreateSession inserts a session row for the given user and returns it.
func (m *Memory) CreateSession(userID int64, expiresAt time.Time) SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := SessionRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	stored := sess
	m.sessions[sess.ID] = &stored
	return sess
}

// RevokeSession sets the revoked flag on a session row.
func (m *Memory) RevokeSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sessionID]; ok {
		sess.Revoked = true
	}
}

// UserByEmail looks a user up by email address. Linear scan; fine for
// tests and examples.
func (m *Memory) UserByEmail(email string) (AuthUserRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return *cloneUser(u), true
		}
	}
	return AuthUserRecord{}, false
}

// UpdateUser applies fn to the stored user row under the write lock.
func (m *Memory) UpdateUser(publicID string, fn func(*AuthUserRecord)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byPublic[publicID]
	if !ok {
		return false
	}
	fn(m.users[id])
	return true
}

// SetReadError forces every subsequent GetSessionWithUser call to return
// err. Pass nil to clear.
func (m *Memory) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// Reads returns the number of GetSessionWithUser calls served so far.
func (m *Memory) Reads() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// GetSessionWithUser describes the getsessionwithuser operation and its observable behavior.
//
// GetSessionWithUser may return an error when input validation, dependency calls, or security checks fail.
// GetSessionWithUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Memory) GetSessionWithUser(ctx context.Context, sessionID string) (*SessionWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	sessCopy := *sess
	result := &SessionWithUser{Session: &sessCopy}
	if user, ok := m.users[sess.UserID]; ok {
		userCopy := cloneUser(user)
		result.User = userCopy
	}
	return result, nil
}

// TouchSession describes the touchsession operation and its observable behavior.
//
// TouchSession may return an error when input validation, dependency calls, or security checks fail.
// TouchSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Memory) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sessionID]; ok {
		t := at
		sess.LastActiveAt = &t
	}
	return nil
}

// LastActiveAt returns the session's last-active timestamp, if recorded.
func (m *Memory) LastActiveAt(sessionID string) *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok || sess.LastActiveAt == nil {
		return nil
	}
	t := *sess.LastActiveAt
	return &t
}

func cloneUser(u *AuthUserRecord) *AuthUserRecord {
	out := *u
	if u.Profile != nil {
		p := *u.Profile
		out.Profile = &p
	}
	if u.Security != nil {
		s := *u.Security
		out.Security = &s
	}
	return &out
}
