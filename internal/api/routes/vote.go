package routes

import (
	"github.com/go-chi/chi/v5"

	"Crackd/internal/api/handlers/vote"
	"Crackd/internal/api/middleware"
	"Crackd/internal/core/sessions"
	"Crackd/internal/core/votes"
)

// RegisterVoteRoutes registers rating endpoints on the router.
// Submission runs under OptionalAuth rather than RequireAuth so that an
// anonymous rating attempt answers with the sign-in redirect instead of a
// bare 401.
func RegisterVoteRoutes(r chi.Router, coordinator *votes.Coordinator, session *sessions.Store, auth *middleware.SessionAuth) {
	createVoteHandler := vote.NewCreateVoteHandler(coordinator, session)
	getVotesHandler := vote.NewGetVotesHandler(coordinator)

	r.With(auth.OptionalAuth).Post("/api/captions/{captionID}/votes", createVoteHandler.HandleCreateVote)
	r.With(auth.RequireAuth).Get("/api/votes", getVotesHandler.HandleGetVotes)
}
