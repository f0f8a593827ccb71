package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"Crackd/internal/api/handlers/session"
	"Crackd/internal/api/middleware"
	"Crackd/internal/auth"
	"Crackd/internal/core/sessions"
)

// RegisterSessionRoutes registers session lifecycle endpoints on the router
func RegisterSessionRoutes(r chi.Router, store *sessions.Store, verifier *auth.Verifier, sessionAuth *middleware.SessionAuth, logger *slog.Logger) {
	meHandler := session.NewMeHandler()
	signInHandler := session.NewSignInHandler(store)
	callbackHandler := session.NewCallbackHandler(store, verifier, sessionAuth, logger)
	signOutHandler := session.NewSignOutHandler(store, sessionAuth, logger)

	r.With(sessionAuth.OptionalAuth).Get("/api/session", meHandler.HandleMe)
	r.Post("/api/session/signin", signInHandler.HandleSignIn)
	r.Get("/api/session/callback", callbackHandler.HandleCallback)
	r.Post("/api/session/signout", signOutHandler.HandleSignOut)
}
