// Package session exposes the session lifecycle over HTTP: current identity,
// sign-in redirection to the external provider, the token callback, and
// sign-out. The provider handshake itself happens elsewhere; these handlers
// only consume its result.
package session

import (
	"net/http"

	"Crackd/internal/api/handlers"
	"Crackd/internal/api/middleware"
)

// MeHandler reports the presently known identity
type MeHandler struct{}

// NewMeHandler creates a new current-user handler
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// HandleMe returns the authenticated user, or null when anonymous
// GET /api/session
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user": middleware.UserFrom(r),
	})
}
