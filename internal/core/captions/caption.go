package captions

import "time"

// Image is a stored image resource with a dereferenceable URL.
// Owned externally; the feed only reads it through the caption join.
type Image struct {
	ID  string `json:"id" db:"id"`
	URL string `json:"url" db:"url"`
}

// Caption is one feed item: a piece of text optionally joined to an image.
// Immutable read-only content from this service's perspective.
type Caption struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	Image     *Image    `json:"image,omitempty"`
}

// FeedEligible reports whether the caption may appear in the feed.
// A caption qualifies only if its image reference resolves to a non-empty URL;
// captions without a usable image never reach the presentation layer.
func (c *Caption) FeedEligible() bool {
	return c.Image != nil && c.Image.URL != ""
}
