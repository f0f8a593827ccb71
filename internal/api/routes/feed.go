package routes

import (
	"github.com/go-chi/chi/v5"

	"Crackd/internal/api/handlers/feed"
	"Crackd/internal/api/middleware"
	"Crackd/internal/core/votes"
)

// RegisterFeedRoutes registers the feed endpoint on the router.
// Anonymous visitors get the feed; authenticated visitors additionally get
// their vote view in the same response.
func RegisterFeedRoutes(r chi.Router, coordinator *votes.Coordinator, auth *middleware.SessionAuth) {
	getFeedHandler := feed.NewGetFeedHandler(coordinator)

	r.With(auth.OptionalAuth).Get("/api/feed", getFeedHandler.HandleGetFeed)
}
