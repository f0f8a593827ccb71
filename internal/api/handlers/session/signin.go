package session

import (
	"net/http"

	"Crackd/internal/api/handlers"
	"Crackd/internal/core/sessions"
)

// SignInHandler hands the client the provider's sign-in entry point
type SignInHandler struct {
	store *sessions.Store
}

// NewSignInHandler creates a new sign-in handler
func NewSignInHandler(store *sessions.Store) *SignInHandler {
	return &SignInHandler{store: store}
}

// HandleSignIn triggers the external identity handshake. It does not resolve
// to a user; the provider redirects back to the callback with a token.
// POST /api/session/signin
func (h *SignInHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"signInUrl": h.store.RequestSignIn(),
	})
}
