package editmode

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
)

// Session is an edit in progress opened over HTTP.
type Session[T any] struct {
	ID         string
	RecordID   string
	Controller *Controller[T]
	OpenedAt   time.Time
	touchedAt  time.Time
}

// Registry keeps the open sessions of one record kind.
type Registry[T any] struct {
	mu       sync.Mutex
	kind     string
	sessions map[string]*Session[T]
	now      func() time.Time
}

func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:     kind,
		sessions: make(map[string]*Session[T]),
		now:      time.Now,
	}
}

// Open registers ctrl for recordID and returns the new session.
func (r *Registry[T]) Open(recordID string, ctrl *Controller[T]) *Session[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	s := &Session[T]{
		ID:         uuid.New().String(),
		RecordID:   recordID,
		Controller: ctrl,
		OpenedAt:   now,
		touchedAt:  now,
	}
	r.sessions[s.ID] = s
	return s
}

// Get returns the session id, which must belong to recordID.
func (r *Registry[T]) Get(id, recordID string) (*Session[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperr.NotFound(r.kind+" edit session", id)
	}
	if s.RecordID != recordID {
		return nil, fmt.Errorf("session %s belongs to another %s: %w", id, r.kind, apperr.ErrConflict)
	}
	s.touchedAt = r.now()
	return s, nil
}

// Close forgets the session.
func (r *Registry[T]) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// ForRecord returns the open sessions of recordID.
func (r *Registry[T]) ForRecord(recordID string) []*Session[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session[T]
	for _, s := range r.sessions {
		if s.RecordID == recordID {
			out = append(out, s)
		}
	}
	return out
}

// Sweep closes sessions idle for longer than maxIdle and returns how many
// were closed.
func (r *Registry[T]) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	n := 0
	for id, s := range r.sessions {
		if s.touchedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of open sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
