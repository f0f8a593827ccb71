package vote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Crackd/internal/api/handlers"
	"Crackd/internal/api/middleware"
	"Crackd/internal/core/sessions"
	"Crackd/internal/core/votes"
)

// CreateVoteHandler handles rating submission
type CreateVoteHandler struct {
	coordinator *votes.Coordinator
	session     *sessions.Store
}

// NewCreateVoteHandler creates a new create vote handler
func NewCreateVoteHandler(coordinator *votes.Coordinator, session *sessions.Store) *CreateVoteHandler {
	return &CreateVoteHandler{
		coordinator: coordinator,
		session:     session,
	}
}

// CreateVoteInput is the rating submission body
type CreateVoteInput struct {
	Value int `json:"value"`
}

// HandleCreateVote submits one rating for the authenticated visitor
// POST /api/captions/{captionID}/votes
//
// Request body: { "value": 4 }
func (h *CreateVoteHandler) HandleCreateVote(w http.ResponseWriter, r *http.Request) {
	captionID := chi.URLParam(r, "captionID")
	if captionID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "caption id is required")
		return
	}

	var req CreateVoteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	user := middleware.UserFrom(r)

	err := h.coordinator.Rate(r.Context(), user, captionID, req.Value)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	state, value := h.coordinator.State(user.ID, captionID)
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"captionId": captionID,
		"state":     state.String(),
		"value":     value,
	})
}

// handleServiceError converts coordinator errors to HTTP responses
func (h *CreateVoteHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votes.ErrAuthRequired):
		// The rating intent is dropped, not queued; the visitor signs in
		// through the provider and re-invokes.
		handlers.WriteJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":     "AuthRequired",
			"message":   "Sign in to vote",
			"signInUrl": h.session.RequestSignIn(),
		})
	case errors.Is(err, votes.ErrAlreadyVoted):
		handlers.WriteError(w, http.StatusConflict, "AlreadyVoted", "You have already voted on this caption")
	case errors.Is(err, votes.ErrVoteInFlight):
		handlers.WriteError(w, http.StatusConflict, "VoteInFlight", "A vote for this caption is still being submitted")
	case errors.Is(err, votes.ErrValueOutOfRange):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Vote value is outside the rating domain")
	case errors.Is(err, votes.ErrVotesUnknown):
		handlers.WriteError(w, http.StatusBadGateway, "VotesUnavailable", "Your votes could not be loaded; try again")
	default:
		handlers.WriteError(w, http.StatusBadGateway, "SubmitFailed", "Failed to submit vote; try again")
	}
}
