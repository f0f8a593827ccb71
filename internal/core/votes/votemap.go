package votes

import (
	"log/slog"
	"sync"
)

// VoteMap is the in-memory, session-scoped view of each user's own confirmed
// votes (userID -> captionID -> value). It is derived state used to render
// "already voted" and block re-submission; the durable uniqueness constraint
// stays the source of truth.
//
// A user without an entry is "unknown", which is distinct from a user whose
// votes loaded as empty. Unknown users must be loaded from the durable store
// before any rating is accepted.
type VoteMap struct {
	mu     sync.RWMutex
	votes  map[string]map[string]int
	logger *slog.Logger
}

// NewVoteMap creates an empty vote map.
func NewVoteMap(logger *slog.Logger) *VoteMap {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteMap{
		votes:  make(map[string]map[string]int),
		logger: logger,
	}
}

// IsLoaded reports whether the user's votes have been read from the durable
// store since the session started (or last identity change).
func (m *VoteMap) IsLoaded(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.votes[userID]
	return ok
}

// Get returns the user's vote on a caption and whether one is held.
func (m *VoteMap) Get(userID, captionID string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.votes[userID][captionID]
	return v, ok
}

// All returns a copy of the user's vote view, or nil when unknown.
func (m *VoteMap) All(userID string) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	held, ok := m.votes[userID]
	if !ok {
		return nil
	}
	out := make(map[string]int, len(held))
	for captionID, v := range held {
		out[captionID] = v
	}
	return out
}

// Replace swaps in the user's vote view wholesale. Used on session start and
// on every identity change; views are never merged across identities.
func (m *VoteMap) Replace(userID string, held map[string]int) {
	copied := make(map[string]int, len(held))
	for captionID, v := range held {
		copied[captionID] = v
	}

	m.mu.Lock()
	m.votes[userID] = copied
	m.mu.Unlock()

	m.logger.Debug("vote map replaced",
		"user", userID,
		"vote_count", len(copied))
}

// Set records one confirmed vote. Only called after the durable store
// acknowledged the write (or reported it already held).
func (m *VoteMap) Set(userID, captionID string, value int) {
	m.mu.Lock()
	if m.votes[userID] == nil {
		m.votes[userID] = make(map[string]int)
	}
	m.votes[userID][captionID] = value
	m.mu.Unlock()

	m.logger.Debug("vote recorded in map",
		"user", userID,
		"caption", captionID,
		"value", value)
}

// Invalidate drops the user's view entirely, returning them to "unknown".
// Called on sign-out and when an identity transitions away.
func (m *VoteMap) Invalidate(userID string) {
	m.mu.Lock()
	delete(m.votes, userID)
	m.mu.Unlock()

	m.logger.Debug("vote map invalidated", "user", userID)
}
