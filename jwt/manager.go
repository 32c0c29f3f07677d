package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TypeAccess is an exported constant or variable used by the validation engine.
	TypeAccess = "access"
	// TypeRefresh is an exported constant or variable used by the validation engine.
	TypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a credential of another type (e.g. a
// refresh token) is presented where an access token is required.
var ErrWrongTokenType = errors.New("wrong token type")

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// AccessClaims defines a public type used by authgate APIs.
//
// Subject carries the user's public ID; SID binds the credential to a
// durable session row.
type AccessClaims struct {
	SID string `json:"sid"`
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs and verifies bearer credentials with a pre-shared HS256
// secret. Verification is synchronous and does no I/O: it runs on every
// request before any cache lookup.
type Manager struct {
	config Config
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a signing secret")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// CreateAccess mints a signed access credential for the given subject and
// session. The validation engine never calls this; it exists for the login
// side.
func (m *Manager) CreateAccess(publicID, sessionID string) (string, error) {
	return m.create(publicID, sessionID, TypeAccess, m.config.AccessTTL)
}

// CreateRefresh mints a signed refresh credential for the given subject and
// session.
func (m *Manager) CreateRefresh(publicID, sessionID string) (string, error) {
	ttl := m.config.RefreshTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return m.create(publicID, sessionID, TypeRefresh, ttl)
}

func (m *Manager) create(publicID, sessionID, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		SID: sessionID,
		Typ: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   publicID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// ParseAccess validates signature, issuer, audience, and expiry, and
// rejects credentials whose typ claim is not "access".
//
// ParseAccess may return an error when input validation, dependency calls, or security checks fail.
// ParseAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Typ != TypeAccess {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
