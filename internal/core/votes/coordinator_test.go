package votes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Crackd/internal/core/captions"
	"Crackd/internal/core/sessions"
)

// Mock repositories for testing
type mockVoteRepository struct {
	mock.Mock
}

func (m *mockVoteRepository) GetForUser(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockVoteRepository) Get(ctx context.Context, captionID, userID string) (*Vote, error) {
	args := m.Called(ctx, captionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Vote), args.Error(1)
}

func (m *mockVoteRepository) Create(ctx context.Context, vote *Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

type mockCaptionRepository struct {
	mock.Mock
}

func (m *mockCaptionRepository) GetFeed(ctx context.Context, limit int) ([]*captions.Caption, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*captions.Caption), args.Error(1)
}

func testConfig() Config {
	return Config{
		Domain:        Domain{Min: 1, Max: 5},
		FeedLimit:     50,
		SubmitTimeout: 2 * time.Second,
	}
}

func newTestCoordinator(repo Repository, feed captions.Repository) (*Coordinator, *sessions.Store) {
	store := sessions.NewStore("https://auth.example/authorize", nil)
	c := NewCoordinator(repo, feed, store, testConfig(), nil)
	return c, store
}

func TestRate_Success(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1", Email: "a@example.com"}

	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(v *Vote) bool {
		return v.CaptionID == "c1" && v.UserID == "user-1" && v.Value == 4
	})).Return(nil).Once()

	err := c.Rate(context.Background(), user, "c1", 4)
	require.NoError(t, err)

	state, value := c.State("user-1", "c1")
	assert.Equal(t, Voted, state)
	assert.Equal(t, 4, value)

	repo.AssertExpectations(t)
}

func TestRate_NoSession(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	err := c.Rate(context.Background(), nil, "c1", 4)
	assert.ErrorIs(t, err, ErrAuthRequired)

	// No repository call of any kind
	repo.AssertNotCalled(t, "Create")
	repo.AssertNotCalled(t, "GetForUser")
}

func TestRate_ValueOutOfRange(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	err := c.Rate(context.Background(), user, "c3", 99)
	assert.ErrorIs(t, err, ErrValueOutOfRange)

	// Nothing written, vote map untouched
	repo.AssertNotCalled(t, "Create")
	state, _ := c.State("user-1", "c3")
	assert.Equal(t, Unvoted, state)
}

func TestRate_AlreadyVoted_NoWrite(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	// Prior vote loaded from the durable store on first use
	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{"c1": 3}, nil).Once()

	err := c.Rate(context.Background(), user, "c1", 5)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	state, value := c.State("user-1", "c1")
	assert.Equal(t, Voted, state)
	assert.Equal(t, 3, value, "stored vote must remain unchanged")

	repo.AssertNotCalled(t, "Create")
}

func TestRate_DuplicateReconciled(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	// Another device already voted 2; local view loaded before it existed
	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicateVote).Once()
	repo.On("Get", mock.Anything, "c1", "user-1").Return(&Vote{
		CaptionID: "c1", UserID: "user-1", Value: 2,
	}, nil).Once()

	// Not surfaced as a failure: the desired end state already holds
	err := c.Rate(context.Background(), user, "c1", 4)
	require.NoError(t, err)

	state, value := c.State("user-1", "c1")
	assert.Equal(t, Voted, state)
	assert.Equal(t, 2, value, "reconciled to the authoritative value, not the submitted one")

	repo.AssertExpectations(t)
}

func TestRate_DuplicateReconcileFetchFails(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicateVote).Once()
	repo.On("Get", mock.Anything, "c1", "user-1").Return(nil, errors.New("backend down")).Once()

	err := c.Rate(context.Background(), user, "c1", 4)
	require.NoError(t, err)

	// The map must never show unvoted while a durable vote exists, even when
	// the authoritative value could not be fetched.
	state, _ := c.State("user-1", "c1")
	assert.Equal(t, Voted, state)
}

func TestRate_FailureRollsBack(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	err := c.Rate(context.Background(), user, "c1", 4)
	require.Error(t, err)

	// Rolled back to unvoted, map unchanged; a retry reaches the repo again
	state, _ := c.State("user-1", "c1")
	assert.Equal(t, Unvoted, state)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, c.Rate(context.Background(), user, "c1", 4))
}

func TestRate_VotesUnknownBlocksRating(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	// A failed vote load is "unknown votes", not "no votes": rating is
	// blocked rather than risking a submission the store will reject.
	repo.On("GetForUser", mock.Anything, "user-1").Return(nil, errors.New("backend down")).Once()

	err := c.Rate(context.Background(), user, "c1", 4)
	assert.ErrorIs(t, err, ErrVotesUnknown)
	repo.AssertNotCalled(t, "Create")
}

func TestRate_SecondCallWhileInFlight(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()

	firstEntered := make(chan struct{})
	release := make(chan struct{})
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(firstEntered)
		<-release
	}).Return(nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Rate(context.Background(), user, "c7", 4)
	}()

	<-firstEntered
	state, _ := c.State("user-1", "c7")
	assert.Equal(t, Submitting, state)

	// Second call for the same caption while the first is outstanding
	err := c.Rate(context.Background(), user, "c7", 4)
	assert.ErrorIs(t, err, ErrVoteInFlight)

	close(release)
	wg.Wait()

	// Exactly one write happened
	repo.AssertNumberOfCalls(t, "Create", 1)
	state, value := c.State("user-1", "c7")
	assert.Equal(t, Voted, state)
	assert.Equal(t, 4, value)
}

func TestRate_IndependentAcrossCaptions(t *testing.T) {
	repo := &mockVoteRepository{}
	c, _ := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()

	release := make(chan struct{})
	repo.On("Create", mock.Anything, mock.MatchedBy(func(v *Vote) bool { return v.CaptionID == "c1" })).
		Run(func(mock.Arguments) { <-release }).Return(nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(v *Vote) bool { return v.CaptionID == "c2" })).
		Return(nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Rate(context.Background(), user, "c1", 3)
	}()

	// c1 in flight must not block a submission for c2
	require.Eventually(t, func() bool {
		s, _ := c.State("user-1", "c1")
		return s == Submitting
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Rate(context.Background(), user, "c2", 5))

	close(release)
	wg.Wait()
	repo.AssertExpectations(t)
}

func TestRate_SubmitTimeout(t *testing.T) {
	repo := &mockVoteRepository{}
	feed := &mockCaptionRepository{}
	store := sessions.NewStore("https://auth.example/authorize", nil)
	c := NewCoordinator(repo, feed, store, Config{
		Domain:        Domain{Min: 1, Max: 5},
		FeedLimit:     50,
		SubmitTimeout: 50 * time.Millisecond,
	}, nil)
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{}, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		<-ctx.Done()
	}).Return(context.DeadlineExceeded).Once()

	err := c.Rate(context.Background(), user, "c1", 4)
	require.Error(t, err)

	// A hung backend call rolls back instead of pinning Submitting forever
	state, _ := c.State("user-1", "c1")
	assert.Equal(t, Unvoted, state)
}

func TestSessionSwitch_ReplacesVoteView(t *testing.T) {
	repo := &mockVoteRepository{}
	c, store := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	repo.On("GetForUser", mock.Anything, "user-a").Return(map[string]int{"c1": 3}, nil)
	repo.On("GetForUser", mock.Anything, "user-b").Return(map[string]int{"c2": 5}, nil)

	store.Resolve(&sessions.User{ID: "user-a"})
	state, value := c.State("user-a", "c1")
	require.Equal(t, Voted, state)
	require.Equal(t, 3, value)

	// Identity switch: B's view must contain only B's votes
	store.Resolve(&sessions.User{ID: "user-b"})

	state, _ = c.State("user-b", "c1")
	assert.Equal(t, Unvoted, state, "prior identity's votes must not leak")
	state, value = c.State("user-b", "c2")
	assert.Equal(t, Voted, state)
	assert.Equal(t, 5, value)

	// A's view was dropped wholesale, not retained
	state, _ = c.State("user-a", "c1")
	assert.Equal(t, Unvoted, state)
}

func TestSignOut_ClearsVoteView(t *testing.T) {
	repo := &mockVoteRepository{}
	c, store := newTestCoordinator(repo, &mockCaptionRepository{})
	defer c.Close()

	repo.On("GetForUser", mock.Anything, "user-a").Return(map[string]int{"c1": 3}, nil)

	store.Resolve(&sessions.User{ID: "user-a"})
	state, _ := c.State("user-a", "c1")
	require.Equal(t, Voted, state)

	store.SignOut()

	state, _ = c.State("user-a", "c1")
	assert.Equal(t, Unvoted, state)
}

func TestInitialize_AnonymousFeedOnly(t *testing.T) {
	repo := &mockVoteRepository{}
	feed := &mockCaptionRepository{}
	c, _ := newTestCoordinator(repo, feed)
	defer c.Close()

	feed.On("GetFeed", mock.Anything, 50).Return([]*captions.Caption{
		{ID: "c1", Content: "first", Image: &captions.Image{ID: "i1", URL: "https://img/1"}},
	}, nil).Once()

	result, err := c.Initialize(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, result.Feed, 1)
	assert.Nil(t, result.User)
	assert.Empty(t, result.Votes)

	repo.AssertNotCalled(t, "GetForUser")
}

func TestInitialize_VotesPopulatedBeforeReturn(t *testing.T) {
	repo := &mockVoteRepository{}
	feed := &mockCaptionRepository{}
	c, _ := newTestCoordinator(repo, feed)
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	feed.On("GetFeed", mock.Anything, 50).Return([]*captions.Caption{}, nil).Once()
	repo.On("GetForUser", mock.Anything, "user-1").Return(map[string]int{"c1": 4}, nil).Once()

	result, err := c.Initialize(context.Background(), user)
	require.NoError(t, err)

	// The vote view arrives with the init result: no window where a control
	// could render enabled for an already-voted caption.
	assert.Equal(t, map[string]int{"c1": 4}, result.Votes)
}

func TestInitialize_FeedFailureIsTotal(t *testing.T) {
	repo := &mockVoteRepository{}
	feed := &mockCaptionRepository{}
	c, _ := newTestCoordinator(repo, feed)
	defer c.Close()

	feed.On("GetFeed", mock.Anything, 50).Return(nil, errors.New("backend down")).Once()

	result, err := c.Initialize(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, result, "no partial result on feed failure")
}

func TestInitialize_VoteLoadFailureFailsInit(t *testing.T) {
	repo := &mockVoteRepository{}
	feed := &mockCaptionRepository{}
	c, _ := newTestCoordinator(repo, feed)
	defer c.Close()

	user := &sessions.User{ID: "user-1"}

	feed.On("GetFeed", mock.Anything, 50).Return([]*captions.Caption{}, nil).Once()
	repo.On("GetForUser", mock.Anything, "user-1").Return(nil, errors.New("backend down")).Once()

	_, err := c.Initialize(context.Background(), user)
	assert.ErrorIs(t, err, ErrVotesUnknown)
}
