package session

import (
	"log/slog"
	"net/http"

	"Crackd/internal/api/handlers"
	"Crackd/internal/api/middleware"
	"Crackd/internal/auth"
	"Crackd/internal/core/sessions"
)

// CallbackHandler finishes sign-in: it verifies the token the provider handed
// back, publishes the identity to the session store (subscribers observe the
// transition before the response is written), and establishes the cookie
// session for subsequent requests.
type CallbackHandler struct {
	store    *sessions.Store
	verifier *auth.Verifier
	cookies  *middleware.SessionAuth
	logger   *slog.Logger
}

// NewCallbackHandler creates a new auth callback handler
func NewCallbackHandler(store *sessions.Store, verifier *auth.Verifier, cookies *middleware.SessionAuth, logger *slog.Logger) *CallbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackHandler{
		store:    store,
		verifier: verifier,
		cookies:  cookies,
		logger:   logger,
	}
}

// HandleCallback resolves the provider token into a session
// GET /api/session/callback?token=<jwt>
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "token is required")
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Warn("auth callback token rejected", "error", err)
		handlers.WriteError(w, http.StatusUnauthorized, "InvalidToken", "Session token could not be verified")
		return
	}

	user := &sessions.User{
		ID:    claims.Subject,
		Email: claims.Email,
	}

	// Publish before the cookie write so the vote view is being rebuilt by
	// the time the client's next request arrives.
	h.store.Resolve(user)

	if err := h.cookies.SaveToken(w, r, token); err != nil {
		h.logger.Error("failed to save session cookie", "error", err, "user", user.ID)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to establish session")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
