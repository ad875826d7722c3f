// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient is an alias so router deps can take
// *middleware.FirebaseAuthClient without importing the firebase package.
type FirebaseAuthClient = fbauth.Client

// context keys use a private type to avoid collisions (SA1029)
type ctxKey struct{ name string }

var (
	ctxKeyUID   = ctxKey{name: "uid"}
	ctxKeyEmail = ctxKey{name: "email"}
	ctxKeyName  = ctxKey{name: "fullName"}
)

// UserAuth verifies "Authorization: Bearer <ID_TOKEN>" and stores
// uid/email/name in the request context.
type UserAuth struct {
	FirebaseAuth *FirebaseAuthClient
}

// Require rejects requests without a valid token.
func (m *UserAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.FirebaseAuth == nil {
			http.Error(w, "auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), uid, token)))
	})
}

// Optional attaches identity when a valid token is present and lets the
// request through as a guest otherwise. Cart and wishlist endpoints run
// under this: guests operate on the local cache only.
func (m *UserAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if m.FirebaseAuth == nil || !strings.HasPrefix(authHeader, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil || strings.TrimSpace(token.UID) == "" {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), strings.TrimSpace(token.UID), token)))
	})
}

func withClaims(ctx context.Context, uid string, token *fbauth.Token) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUID, uid)

	if raw, ok := token.Claims["email"]; ok {
		if e, ok2 := raw.(string); ok2 && strings.TrimSpace(e) != "" {
			ctx = context.WithValue(ctx, ctxKeyEmail, strings.TrimSpace(e))
		}
	}
	if raw, ok := token.Claims["name"]; ok {
		if s, ok2 := raw.(string); ok2 && strings.TrimSpace(s) != "" {
			ctx = context.WithValue(ctx, ctxKeyName, strings.TrimSpace(s))
		}
	}
	return ctx
}

// CurrentUserUID returns the authenticated Firebase UID, if any.
func CurrentUserUID(r *http.Request) (string, bool) {
	u, ok := r.Context().Value(ctxKeyUID).(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}

// CurrentUserEmail returns the token email claim (may be absent).
func CurrentUserEmail(r *http.Request) string {
	e, _ := r.Context().Value(ctxKeyEmail).(string)
	return strings.TrimSpace(e)
}

// CurrentUserName returns the token display-name claim (may be absent).
func CurrentUserName(r *http.Request) string {
	s, _ := r.Context().Value(ctxKeyName).(string)
	return strings.TrimSpace(s)
}
