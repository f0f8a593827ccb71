package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Crackd/internal/core/captions"
)

type postgresCaptionRepo struct {
	db *sql.DB
}

// NewCaptionRepository creates a new PostgreSQL caption feed repository
func NewCaptionRepository(db *sql.DB) captions.Repository {
	return &postgresCaptionRepo{db: db}
}

// GetFeed retrieves up to limit captions joined to their images, newest first.
// The inner join plus the URL predicate excludes every caption whose image
// reference is absent or resolves to an empty URL, so ineligible captions
// never leave this layer. All-or-nothing: any failure returns no partial list.
func (r *postgresCaptionRepo) GetFeed(ctx context.Context, limit int) ([]*captions.Caption, error) {
	query := `
		SELECT
			c.id, c.content, c.created_at,
			i.id, i.url
		FROM captions c
		JOIN images i ON i.id = c.image_id
		WHERE i.url <> ''
		ORDER BY c.created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch caption feed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*captions.Caption
	for rows.Next() {
		var (
			caption captions.Caption
			image   captions.Image
		)
		err := rows.Scan(
			&caption.ID, &caption.Content, &caption.CreatedAt,
			&image.ID, &image.URL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan caption: %w", err)
		}
		caption.Image = &image

		// The query already guarantees this; the total function stays the
		// single decision point for feed eligibility.
		if !caption.FeedEligible() {
			continue
		}
		result = append(result, &caption)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating captions: %w", err)
	}

	return result, nil
}
