package app

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wagerworks/towerd/internal/domain"
)

// Registry is the in-process table of live sessions, at most one per user.
// Begin marks a session busy for the duration of one interaction so that
// concurrent actions on the same session serialize instead of interleaving.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	session *domain.Session
	busy    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Create registers a fresh session for its user.
func (r *Registry) Create(session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[session.UserID]; ok {
		return domain.ErrSessionAlreadyActive
	}
	r.entries[session.UserID] = &entry{session: session}
	return nil
}

// Begin claims the user's session for one interaction. The returned session
// may be mutated freely until End is called; a second Begin before End fails
// with domain.ErrInteractionInProgress.
func (r *Registry) Begin(userID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if e.busy {
		return nil, domain.ErrInteractionInProgress
	}
	e.busy = true
	return e.session, nil
}

// End releases the busy claim taken by Begin.
func (r *Registry) End(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		e.busy = false
	}
}

// Peek returns the user's live session without claiming it. The session must
// not be read while an interaction could be mutating it; claim it with Begin
// for that.
func (r *Registry) Peek(userID string) (*domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Remove deletes the session only when the token still matches, so a timer
// armed for an old session can never evict its successor.
func (r *Registry) Remove(userID string, token uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok || e.session.Token != token {
		return false
	}
	delete(r.entries, userID)
	return true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
