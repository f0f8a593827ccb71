package votes

import "context"

// Repository defines the data access interface for durable votes.
// The backing store enforces the (caption, user) uniqueness constraint; that
// constraint, not any in-memory check, is what makes concurrent submissions
// from multiple devices or tabs safe.
type Repository interface {
	// GetForUser returns every vote the user has cast, keyed by caption id.
	// An error means "unknown votes", never "no votes".
	GetForUser(ctx context.Context, userID string) (map[string]int, error)

	// Get retrieves a single vote, or ErrVoteNotFound.
	// Used to reconcile the authoritative value after a duplicate rejection.
	Get(ctx context.Context, captionID, userID string) (*Vote, error)

	// Create inserts a new vote row. Returns ErrDuplicateVote when the
	// uniqueness constraint rejects the insert. Never updates or deletes.
	Create(ctx context.Context, vote *Vote) error
}
