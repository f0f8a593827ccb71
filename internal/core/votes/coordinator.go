package votes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"Crackd/internal/core/captions"
	"Crackd/internal/core/sessions"
)

// Coordinator binds the session store, the caption feed, and the vote
// repository behind a single "submit rating" operation. It owns the per-user
// vote map, enforces the client-side single-submission guard, and reconciles
// local state with the durable store whenever the two disagree.
type Coordinator struct {
	repo    Repository
	feed    captions.Repository
	session *sessions.Store
	votemap *VoteMap
	domain  Domain
	logger  *slog.Logger

	feedLimit     int
	submitTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]map[string]struct{} // userID -> captionIDs with a submission outstanding
	lastUser string

	unsubscribe func()
}

// Config carries the coordinator's process-start configuration. None of it
// hot-reloads.
type Config struct {
	Domain        Domain
	FeedLimit     int
	SubmitTimeout time.Duration
}

// InitResult is the state the presentation layer needs before rendering any
// rating control as enabled: the feed, the identity, and the identity's vote
// view (populated or known-empty, never assumed empty).
type InitResult struct {
	Feed  []*captions.Caption `json:"feed"`
	User  *sessions.User      `json:"user,omitempty"`
	Votes map[string]int      `json:"votes"`
}

// NewCoordinator wires the coordinator and subscribes it to session identity
// changes. Callers must Close it to release the subscription.
func NewCoordinator(repo Repository, feed captions.Repository, session *sessions.Store, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		repo:          repo,
		feed:          feed,
		session:       session,
		votemap:       NewVoteMap(logger),
		domain:        cfg.Domain,
		feedLimit:     cfg.FeedLimit,
		submitTimeout: cfg.SubmitTimeout,
		inflight:      make(map[string]map[string]struct{}),
		logger:        logger,
	}
	c.unsubscribe = session.OnChange(c.handleSessionChange)
	return c
}

// Close releases the session subscription. Safe to call during teardown;
// after Close the coordinator no longer observes identity changes.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// handleSessionChange rebuilds the vote map on every identity transition.
// The outgoing identity's view is dropped wholesale; views are never merged
// across identities. The incoming identity's view is loaded from the durable
// store, and until that load succeeds the identity stays "unknown" (rating
// blocked by ensureLoaded).
func (c *Coordinator) handleSessionChange(u *sessions.User) {
	c.mu.Lock()
	prev := c.lastUser
	if u != nil {
		c.lastUser = u.ID
	} else {
		c.lastUser = ""
	}
	c.mu.Unlock()

	if prev != "" && (u == nil || u.ID != prev) {
		c.votemap.Invalidate(prev)
	}

	if u == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
	defer cancel()

	if err := c.loadVotes(ctx, u.ID); err != nil {
		// Left unknown on purpose: Rate refuses until a later load succeeds.
		c.logger.Warn("failed to load votes on session change",
			"error", err,
			"user", u.ID)
	}
}

// Initialize runs the feed fetch and the vote load for the given identity
// concurrently and returns once both settle. The vote view is populated (or
// known-empty) before Initialize returns, closing the window where a control
// could accept a vote the store already holds.
//
// A failed vote load fails initialization for that identity rather than being
// read as "no votes": a duplicate-looking submission the backend would reject
// is worse than a blocked control.
func (c *Coordinator) Initialize(ctx context.Context, user *sessions.User) (*InitResult, error) {
	var (
		wg      sync.WaitGroup
		feed    []*captions.Caption
		feedErr error
		voteErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		feed, feedErr = c.Feed(ctx)
	}()

	if user != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			voteErr = c.ensureLoaded(ctx, user.ID)
		}()
	}
	wg.Wait()

	if feedErr != nil {
		return nil, fmt.Errorf("failed to initialize feed: %w", feedErr)
	}
	if voteErr != nil {
		return nil, voteErr
	}

	result := &InitResult{
		Feed:  feed,
		User:  user,
		Votes: map[string]int{},
	}
	if user != nil {
		result.Votes = c.votemap.All(user.ID)
	}
	return result, nil
}

// Feed retrieves the presentation-ready caption feed. Pure read.
func (c *Coordinator) Feed(ctx context.Context) ([]*captions.Caption, error) {
	if c.feedLimit < 1 || c.feedLimit > 100 {
		return nil, captions.ErrInvalidLimit
	}
	return c.feed.GetFeed(ctx, c.feedLimit)
}

// VotesFor returns the identity's vote view, loading it from the durable
// store first when unknown.
func (c *Coordinator) VotesFor(ctx context.Context, user *sessions.User) (map[string]int, error) {
	if user == nil {
		return nil, ErrAuthRequired
	}
	if err := c.ensureLoaded(ctx, user.ID); err != nil {
		return nil, err
	}
	return c.votemap.All(user.ID), nil
}

// State reports the per-caption submission state for an identity.
func (c *Coordinator) State(userID, captionID string) (State, int) {
	if v, ok := c.votemap.Get(userID, captionID); ok {
		return Voted, v
	}

	c.mu.Lock()
	_, submitting := c.inflight[userID][captionID]
	c.mu.Unlock()

	if submitting {
		return Submitting, 0
	}
	return Unvoted, 0
}

// Rate submits one rating with idempotent intent.
//
// Transitions Unvoted -> Submitting -> Voted, or rolls back to Unvoted on
// failure. Voted is terminal: a repeat call returns ErrAlreadyVoted without
// contacting the repository. A duplicate rejection from the store is not a
// failure; it means the desired end state already holds, so the call
// reconciles into Voted with the authoritative value.
func (c *Coordinator) Rate(ctx context.Context, user *sessions.User, captionID string, value int) error {
	if user == nil {
		return ErrAuthRequired
	}
	if captionID == "" {
		return fmt.Errorf("caption id is required")
	}
	if err := c.domain.Validate(value); err != nil {
		return err
	}

	// The vote view must be known before the guard below means anything.
	if err := c.ensureLoaded(ctx, user.ID); err != nil {
		return err
	}

	// Client-side guard: no transition out of Voted.
	if _, ok := c.votemap.Get(user.ID, captionID); ok {
		return ErrAlreadyVoted
	}

	if !c.beginSubmit(user.ID, captionID) {
		return ErrVoteInFlight
	}
	defer c.endSubmit(user.ID, captionID)

	// A hung backend call must not pin the caption in Submitting forever.
	submitCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	vote := &Vote{
		CaptionID: captionID,
		UserID:    user.ID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}

	err := c.repo.Create(submitCtx, vote)
	switch {
	case err == nil:
		c.votemap.Set(user.ID, captionID, value)
		c.logger.Info("vote recorded",
			"user", user.ID,
			"caption", captionID,
			"value", value)
		return nil

	case errors.Is(err, ErrDuplicateVote):
		c.reconcileDuplicate(ctx, user.ID, captionID, value)
		return nil

	case errors.Is(err, context.DeadlineExceeded):
		c.logger.Warn("vote submission timed out",
			"user", user.ID,
			"caption", captionID,
			"timeout", c.submitTimeout)
		return fmt.Errorf("vote submission timed out, try again: %w", err)

	default:
		c.logger.Error("vote submission failed",
			"error", err,
			"user", user.ID,
			"caption", captionID)
		return fmt.Errorf("failed to submit vote: %w", err)
	}
}

// reconcileDuplicate folds a duplicate rejection into Voted. The store
// already holds a row for this pair; fetch its authoritative value when
// possible, otherwise record the submitted value so the map never shows the
// caption as unvoted while a durable vote exists.
func (c *Coordinator) reconcileDuplicate(ctx context.Context, userID, captionID string, submitted int) {
	held := submitted
	if existing, err := c.repo.Get(ctx, captionID, userID); err == nil {
		held = existing.Value
	} else {
		c.logger.Warn("could not fetch authoritative vote after duplicate rejection",
			"error", err,
			"user", userID,
			"caption", captionID)
	}

	c.votemap.Set(userID, captionID, held)
	c.logger.Info("duplicate vote reconciled",
		"user", userID,
		"caption", captionID,
		"value", held)
}

// ensureLoaded reads the identity's votes from the durable store if the map
// does not hold them yet. A failed read surfaces ErrVotesUnknown rather than
// being conflated with an empty view.
func (c *Coordinator) ensureLoaded(ctx context.Context, userID string) error {
	if c.votemap.IsLoaded(userID) {
		return nil
	}
	return c.loadVotes(ctx, userID)
}

func (c *Coordinator) loadVotes(ctx context.Context, userID string) error {
	held, err := c.repo.GetForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVotesUnknown, err)
	}
	c.votemap.Replace(userID, held)
	return nil
}

// beginSubmit claims the per-(user, caption) submission slot. At most one
// submission per pair is in flight; submissions across captions stay
// independent.
func (c *Coordinator) beginSubmit(userID, captionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, taken := c.inflight[userID][captionID]; taken {
		return false
	}
	if c.inflight[userID] == nil {
		c.inflight[userID] = make(map[string]struct{})
	}
	c.inflight[userID][captionID] = struct{}{}
	return true
}

func (c *Coordinator) endSubmit(userID, captionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inflight[userID], captionID)
	if len(c.inflight[userID]) == 0 {
		delete(c.inflight, userID)
	}
}
