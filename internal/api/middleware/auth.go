package middleware

import (
	"context"
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/sessions"

	"Crackd/internal/auth"
	"Crackd/internal/core/sessions"
)

// Context keys for storing user information
type contextKey string

const userKey contextKey = "user"

// SessionCookieName is the cookie session holding the provider token
const SessionCookieName = "crackd_session"

// sessionTokenKey is the cookie session value carrying the provider token
const sessionTokenKey = "token"

// SessionAuth resolves the authenticated identity for each request from the
// provider session token, carried either as a Bearer header or inside the
// signed cookie session established by the auth callback.
type SessionAuth struct {
	verifier *auth.Verifier
	cookies  *gorilla.CookieStore
	logger   *slog.Logger
}

// NewSessionAuth creates the auth middleware. Both the verifier and the
// cookie store are injected; nothing here reaches for process globals.
func NewSessionAuth(verifier *auth.Verifier, cookies *gorilla.CookieStore, logger *slog.Logger) *SessionAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionAuth{
		verifier: verifier,
		cookies:  cookies,
		logger:   logger,
	}
}

// RequireAuth ensures the request carries a verifiable identity.
// If not, responds 401; otherwise injects the user into the request context.
func (m *SessionAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.resolve(r)
		if user == nil {
			writeAuthError(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// OptionalAuth loads the identity when present but never rejects.
// Used by endpoints that serve both signed-in and anonymous visitors.
func (m *SessionAuth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolve(r); user != nil {
			r = r.WithContext(withUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// resolve extracts and verifies the provider token from the request.
// Returns nil when no verifiable identity is attached.
func (m *SessionAuth) resolve(r *http.Request) *sessions.User {
	token := m.tokenFromRequest(r)
	if token == "" {
		return nil
	}

	claims, err := m.verifier.Verify(token)
	if err != nil {
		m.logger.Debug("session token rejected",
			"error", err,
			"path", r.URL.Path)
		return nil
	}

	return &sessions.User{
		ID:    claims.Subject,
		Email: claims.Email,
	}
}

// tokenFromRequest prefers the Authorization header, falling back to the
// cookie session written by the auth callback.
func (m *SessionAuth) tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return h
	}

	cookieSession, err := m.cookies.Get(r, SessionCookieName)
	if err != nil || cookieSession.IsNew {
		return ""
	}
	token, _ := cookieSession.Values[sessionTokenKey].(string)
	return token
}

// SaveToken writes the provider token into the cookie session.
// Called by the auth callback handler after verification.
func (m *SessionAuth) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	cookieSession, _ := m.cookies.Get(r, SessionCookieName)
	cookieSession.Values[sessionTokenKey] = token
	cookieSession.Options.HttpOnly = true
	cookieSession.Options.SameSite = http.SameSiteLaxMode
	return cookieSession.Save(r, w)
}

// ClearToken deletes the cookie session. Called on sign-out.
func (m *SessionAuth) ClearToken(w http.ResponseWriter, r *http.Request) error {
	cookieSession, err := m.cookies.Get(r, SessionCookieName)
	if err != nil {
		return err
	}
	cookieSession.Options.MaxAge = -1
	return cookieSession.Save(r, w)
}

func withUser(ctx context.Context, u *sessions.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom extracts the authenticated user from the request context.
// Returns nil if the request is anonymous.
func UserFrom(r *http.Request) *sessions.User {
	u, _ := r.Context().Value(userKey).(*sessions.User)
	return u
}

// WithTestUser injects a user into the context for handler tests.
func WithTestUser(ctx context.Context, u *sessions.User) context.Context {
	return withUser(ctx, u)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"AuthRequired","message":"` + message + `"}`))
}
