package feed

import (
	"errors"
	"net/http"

	"Crackd/internal/api/handlers"
	"Crackd/internal/api/middleware"
	"Crackd/internal/core/captions"
	"Crackd/internal/core/votes"
)

// GetFeedHandler serves the initial page state: the caption feed, the current
// identity if any, and that identity's vote view. The vote view arrives in
// the same response as the feed, so the presentation layer never renders an
// enabled rating control before knowing which captions are already voted.
type GetFeedHandler struct {
	coordinator *votes.Coordinator
}

// NewGetFeedHandler creates a new feed handler
func NewGetFeedHandler(coordinator *votes.Coordinator) *GetFeedHandler {
	return &GetFeedHandler{coordinator: coordinator}
}

// HandleGetFeed initializes page state
// GET /api/feed
func (h *GetFeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r)

	result, err := h.coordinator.Initialize(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, captions.ErrInvalidLimit):
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		case errors.Is(err, votes.ErrVotesUnknown):
			handlers.WriteError(w, http.StatusBadGateway, "VotesUnavailable", "Your votes could not be loaded; rating is temporarily disabled")
		default:
			handlers.WriteError(w, http.StatusBadGateway, "FeedUnavailable", "Feed is temporarily unavailable")
		}
		return
	}

	if result.Feed == nil {
		result.Feed = []*captions.Caption{}
	}
	handlers.WriteJSON(w, http.StatusOK, result)
}
