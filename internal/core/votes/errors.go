package votes

import "errors"

var (
	// ErrVoteNotFound indicates the requested vote doesn't exist
	ErrVoteNotFound = errors.New("vote not found")

	// ErrDuplicateVote indicates the durable store already holds a vote for
	// this (caption, user) pair and rejected the insert
	ErrDuplicateVote = errors.New("vote already exists for this caption and user")

	// ErrAlreadyVoted indicates the client-side guard tripped: the vote map
	// already shows a confirmed vote, so no write was attempted
	ErrAlreadyVoted = errors.New("already voted on this caption")

	// ErrVoteInFlight indicates a submission for this caption is still
	// outstanding; the second call is rejected without a write
	ErrVoteInFlight = errors.New("vote submission already in flight")

	// ErrValueOutOfRange indicates the rating value is outside the configured domain
	ErrValueOutOfRange = errors.New("vote value outside configured rating domain")

	// ErrAuthRequired indicates a rating was attempted with no session
	ErrAuthRequired = errors.New("authentication required to vote")

	// ErrVotesUnknown indicates the user's durable votes could not be read;
	// callers must not treat this as "no votes"
	ErrVotesUnknown = errors.New("user votes could not be loaded")
)
