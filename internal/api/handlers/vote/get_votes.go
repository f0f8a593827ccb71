package vote

import (
	"errors"
	"net/http"

	"Crackd/internal/api/handlers"
	"Crackd/internal/api/middleware"
	"Crackd/internal/core/votes"
)

// GetVotesHandler serves the authenticated visitor's vote view
type GetVotesHandler struct {
	coordinator *votes.Coordinator
}

// NewGetVotesHandler creates a new get votes handler
func NewGetVotesHandler(coordinator *votes.Coordinator) *GetVotesHandler {
	return &GetVotesHandler{coordinator: coordinator}
}

// HandleGetVotes returns every vote the current user holds, keyed by caption
// GET /api/votes
func (h *GetVotesHandler) HandleGetVotes(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r)

	held, err := h.coordinator.VotesFor(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, votes.ErrAuthRequired):
			handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		case errors.Is(err, votes.ErrVotesUnknown):
			handlers.WriteError(w, http.StatusBadGateway, "VotesUnavailable", "Your votes could not be loaded; try again")
		default:
			handlers.WriteError(w, http.StatusBadGateway, "VotesUnavailable", "Your votes could not be loaded; try again")
		}
		return
	}

	if held == nil {
		held = map[string]int{}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"votes": held})
}
