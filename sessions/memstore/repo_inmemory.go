package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/counsellor-web/sessions"
)

var _ sessions.Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of sessions.Repo.
// State survives store eviction but not a process restart.
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]sessions.State
	closed bool
}

// New creates a new in-memory session state repository
func New() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]sessions.State),
	}
}

// Load retrieves the state stored under key
func (r *InMemoryRepo) Load(_ context.Context, key string) (sessions.State, bool, error) {
	if key == "" {
		return sessions.State{}, false, fmt.Errorf("key is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return sessions.State{}, false, fmt.Errorf("repo closed")
	}
	st, ok := r.states[key]
	return st, ok, nil
}

// Save creates or replaces the state stored under key
func (r *InMemoryRepo) Save(_ context.Context, key string, state sessions.State) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("repo closed")
	}
	r.states[key] = state
	return nil
}

// Delete removes the state stored under key
func (r *InMemoryRepo) Delete(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("repo closed")
	}
	delete(r.states, key) // Already doesn't exist, no error
	return nil
}

// Close makes every later call fail, which lets tests exercise persistence failures
func (r *InMemoryRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Len returns the number of stored entries
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
