package captions

import "context"

// Repository defines the data access interface for the caption feed
type Repository interface {
	// GetFeed retrieves up to limit feed-eligible captions, newest first,
	// each joined to its image. All-or-nothing: on any backend failure it
	// returns an error and no partial list.
	GetFeed(ctx context.Context, limit int) ([]*Caption, error)
}
