package jwt

import (
	"errors"
	"testing"
	"time"
)

func testManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()

	cfg := Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "authgate-test",
		Audience:   "test-api",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestParseAccessRoundTrip(t *testing.T) {
	m := testManager(t, nil)

	token, err := m.CreateAccess("user-pub", "sess-1")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.Subject != "user-pub" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.SID != "sess-1" {
		t.Fatalf("sid = %q", claims.SID)
	}
	if claims.Typ != TypeAccess {
		t.Fatalf("typ = %q", claims.Typ)
	}
}

func TestParseAccessRejectsRefreshToken(t *testing.T) {
	m := testManager(t, nil)

	refresh, err := m.CreateRefresh("user-pub", "sess-1")
	if err != nil {
		t.Fatalf("CreateRefresh: %v", err)
	}

	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestParseAccessRejectsForeignIssuer(t *testing.T) {
	issuerA := testManager(t, nil)
	issuerB := testManager(t, func(c *Config) { c.Issuer = "someone-else" })

	token, err := issuerB.CreateAccess("user-pub", "sess-1")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}

	if _, err := issuerA.ParseAccess(token); err == nil {
		t.Fatal("expected issuer rejection")
	}
}

func TestParseAccessRejectsForeignAudience(t *testing.T) {
	apiA := testManager(t, nil)
	apiB := testManager(t, func(c *Config) { c.Audience = "other-api" })

	token, err := apiB.CreateAccess("user-pub", "sess-1")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}

	if _, err := apiA.ParseAccess(token); err == nil {
		t.Fatal("expected audience rejection")
	}
}

func TestParseAccessRejectsWrongSecret(t *testing.T) {
	signer := testManager(t, func(c *Config) {
		c.Secret = []byte("another-secret-another-secret-32")
	})
	verifier := testManager(t, nil)

	token, err := signer.CreateAccess("user-pub", "sess-1")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}

	if _, err := verifier.ParseAccess(token); err == nil {
		t.Fatal("expected signature rejection")
	}
}

func TestParseAccessRejectsExpiredToken(t *testing.T) {
	signer := testManager(t, func(c *Config) {
		c.AccessTTL = time.Nanosecond
	})
	verifier := testManager(t, func(c *Config) {
		c.Leeway = 0
	})

	token, err := signer.CreateAccess("user-pub", "sess-1")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := verifier.ParseAccess(token); err == nil {
		t.Fatal("expected expiry rejection")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{AccessTTL: time.Minute}); err == nil {
		t.Fatal("expected missing-secret rejection")
	}
	if _, err := NewManager(Config{Secret: []byte("s"), AccessTTL: 0}); err == nil {
		t.Fatal("expected TTL rejection")
	}
	if _, err := NewManager(Config{Secret: []byte("s"), AccessTTL: time.Minute, Leeway: time.Hour}); err == nil {
		t.Fatal("expected leeway rejection")
	}
}
