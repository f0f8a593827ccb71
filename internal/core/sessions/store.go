// Package sessions tracks the current authenticated identity and notifies
// subscribers when it changes. Identity is pushed in by the external auth
// subsystem (token resolution via the callback endpoint); nothing here caches
// credentials beyond the current session reference, and the store is
// re-derived from scratch on every process start.
package sessions

import (
	"log/slog"
	"sync"
)

// User is the authenticated identity as observed from the auth subsystem.
// Created and owned externally; this service never mutates it.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ChangeHandler is invoked on every identity transition: nil->User on sign-in,
// User->nil on sign-out, User->different User on an identity switch.
type ChangeHandler func(u *User)

// Store holds the current identity and fans out change notifications.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	current   *User
	handlers  map[int]ChangeHandler
	nextID    int
	signInURL string
	logger    *slog.Logger
}

// NewStore creates a session store. signInURL is the external identity
// provider's entry point; sign-in resolution arrives later via Resolve.
func NewStore(signInURL string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		handlers:  make(map[int]ChangeHandler),
		signInURL: signInURL,
		logger:    logger,
	}
}

// Current returns the presently known identity, or nil when no session exists.
// May be nil immediately after construction while resolution is pending.
func (s *Store) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers a change handler and returns its deregistration func.
// The returned func stops notifications deterministically (no reliance on
// garbage collection) and is safe to call more than once during teardown.
func (s *Store) OnChange(h ChangeHandler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// RequestSignIn returns the external identity provider's sign-in URL.
// It does not itself resolve to a User; the provider redirects back with a
// session token which lands in Resolve.
func (s *Store) RequestSignIn() string {
	return s.signInURL
}

// Resolve publishes an identity delivered by the auth subsystem.
// Handlers fire before Resolve returns so that subscribers observe the
// transition ahead of any dependent request handling.
func (s *Store) Resolve(u *User) {
	s.mu.Lock()
	prev := s.current
	s.current = u
	handlers := s.snapshotHandlers()
	s.mu.Unlock()

	if !identityChanged(prev, u) {
		return
	}

	s.logger.Info("session identity changed",
		"previous", userID(prev),
		"current", userID(u))

	for _, h := range handlers {
		h(u)
	}
}

// SignOut clears the current identity. Handlers observe the nil transition
// before SignOut returns.
func (s *Store) SignOut() {
	s.Resolve(nil)
}

// snapshotHandlers copies the handler set so notification runs outside the
// lock (a handler may unsubscribe itself). Callers must hold s.mu.
func (s *Store) snapshotHandlers() []ChangeHandler {
	out := make([]ChangeHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		out = append(out, h)
	}
	return out
}

func identityChanged(prev, next *User) bool {
	if prev == nil && next == nil {
		return false
	}
	if prev == nil || next == nil {
		return true
	}
	return prev.ID != next.ID
}

func userID(u *User) string {
	if u == nil {
		return "none"
	}
	return u.ID
}
