package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authgate "github.com/hollowaylabs/authgate"
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated identity injected by
// [Guard] or [Options], and whether one is present.
func IdentityFromContext(ctx context.Context) (*authgate.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authgate.Identity)
	return id, ok
}

// Options configures credential extraction for the guards.
type Options struct {
	// CookieName, when non-empty, names a cookie consulted for the
	// credential if the Authorization header carries none. The header
	// always wins when both are present.
	CookieName string
}

// BearerFromRequest extracts the bearer credential from the Authorization
// header, falling back to the named cookie when the header is absent or
// malformed. Returns false when no credential is present.
func BearerFromRequest(r *http.Request, cookieName string) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Guard enforces authentication: requests without a valid credential and
// usable session are rejected with a status code matching the failure
// class. On success the identity is injected into the request context.
func Guard(engine *authgate.Engine, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := BearerFromRequest(r, opts.CookieName)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.Validate(r.Context(), token)
			if err != nil {
				status, msg := statusForError(err)
				http.Error(w, msg, status)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Optional validates the credential when one is present but never rejects
// the request: anonymous callers pass through without an identity, and a
// failed validation is treated the same as no credential. Backend outages
// are the one exception and still return 503.
func Optional(engine *authgate.Engine, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := BearerFromRequest(r, opts.CookieName)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := engine.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, authgate.ErrBackendUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, authgate.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	case authgate.IsAccessDenied(err):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusUnauthorized, "unauthorized"
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
