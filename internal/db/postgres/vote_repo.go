package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Crackd/internal/core/votes"
)

// uniqueViolation is the PostgreSQL error code for unique constraint rejection
const uniqueViolation = "23505"

type postgresVoteRepo struct {
	db *sql.DB
}

// NewVoteRepository creates a new PostgreSQL vote repository
func NewVoteRepository(db *sql.DB) votes.Repository {
	return &postgresVoteRepo{db: db}
}

// Create inserts a new vote row. The caption_votes table carries
// UNIQUE (caption_id, profile_id); when two submissions for the same pair
// race, the database rejects the second writer and this returns
// ErrDuplicateVote. No update or delete is ever issued here.
func (r *postgresVoteRepo) Create(ctx context.Context, vote *votes.Vote) error {
	query := `
		INSERT INTO caption_votes (caption_id, profile_id, vote_value, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx, query,
		vote.CaptionID, vote.UserID, vote.Value, vote.CreatedAt,
	).Scan(&vote.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return votes.ErrDuplicateVote
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	return nil
}

// Get retrieves a user's vote on a specific caption.
// Used to reconcile the authoritative value after a duplicate rejection.
func (r *postgresVoteRepo) Get(ctx context.Context, captionID, userID string) (*votes.Vote, error) {
	query := `
		SELECT caption_id, profile_id, vote_value, created_at
		FROM caption_votes
		WHERE caption_id = $1 AND profile_id = $2
	`

	var vote votes.Vote
	err := r.db.QueryRowContext(ctx, query, captionID, userID).Scan(
		&vote.CaptionID, &vote.UserID, &vote.Value, &vote.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, votes.ErrVoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return &vote, nil
}

// GetForUser returns every vote the user has cast, keyed by caption id.
// An error here means the caller does not know the user's votes; it must not
// be read as an empty map.
func (r *postgresVoteRepo) GetForUser(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT caption_id, vote_value
		FROM caption_votes
		WHERE profile_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes for user: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]int)
	for rows.Next() {
		var (
			captionID string
			value     int
		)
		if err := rows.Scan(&captionID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		result[captionID] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}

	return result, nil
}
