package session

import (
	"log/slog"
	"net/http"

	"Crackd/internal/api/handlers"
	"Crackd/internal/api/middleware"
	"Crackd/internal/core/sessions"
)

// SignOutHandler clears the session
type SignOutHandler struct {
	store   *sessions.Store
	cookies *middleware.SessionAuth
	logger  *slog.Logger
}

// NewSignOutHandler creates a new sign-out handler
func NewSignOutHandler(store *sessions.Store, cookies *middleware.SessionAuth, logger *slog.Logger) *SignOutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignOutHandler{
		store:   store,
		cookies: cookies,
		logger:  logger,
	}
}

// HandleSignOut clears the identity. Subscribers observe the nil transition
// (and drop the vote view) before the response goes out.
// POST /api/session/signout
func (h *SignOutHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.store.SignOut()

	if err := h.cookies.ClearToken(w, r); err != nil {
		h.logger.Warn("failed to clear session cookie", "error", err)
		// Continue with sign-out anyway
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"signedOut": true})
}
