package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const persistTimeout = 5 * time.Second

// Store holds the state of one browser session. It is mutated only through
// Login, Logout and CompleteProfile; every mutation is written through to the Repo.
//
// Mutations are atomic: readers see either the whole previous state or the
// whole new one. Persistence failures are logged and the store carries on in memory.
type Store struct {
	key  string
	repo Repo

	mu       sync.RWMutex
	state    State
	revision uint64

	// persistMu orders writes so the repo always ends up holding the latest revision
	persistMu sync.Mutex
	persisted uint64
}

// NewStore creates a store with default (logged-out) state. A nil repo keeps
// the state in memory only.
func NewStore(key string, repo Repo) *Store {
	return &Store{key: key, repo: repo}
}

// Key returns the namespaced persistence key of the store
func (s *Store) Key() string {
	return s.key
}

// Login records a successful login exchange. The caller has already validated
// the token against the backend.
func (s *Store) Login(token string, profileCompleted bool) {
	if token == "" {
		log.Warn().Str("session", s.key).Msg("Login called with an empty token; ignored")
		return
	}
	s.mutate(func(st *State) bool {
		*st = State{Token: token, IsLoggedIn: true, ProfileComplete: profileCompleted}
		return true
	})
}

// Logout resets the session to its defaults. Calling it on a logged-out session is a no-op.
func (s *Store) Logout() {
	s.mutate(func(st *State) bool {
		if st.IsZero() {
			return false
		}
		*st = State{}
		return true
	})
}

// CompleteProfile marks onboarding as finished. It has no effect while logged out,
// which keeps a logged-out session at its defaults.
func (s *Store) CompleteProfile() {
	s.mutate(completeProfile)
}

// CompleteProfileAt is CompleteProfile applied only if no mutation happened
// since revision. It reports whether the profile flag is now set by this call
// or was already set at that revision.
func (s *Store) CompleteProfileAt(revision uint64) bool {
	applied := false
	s.mutate(func(st *State) bool {
		if s.revision != revision || !st.IsLoggedIn {
			return false
		}
		applied = true
		return completeProfile(st)
	})
	return applied
}

func completeProfile(st *State) bool {
	if !st.IsLoggedIn || st.ProfileComplete {
		return false
	}
	st.ProfileComplete = true
	return true
}

// State returns a copy of the current state. It never waits on persistence.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the current state together with its revision. The revision
// increases on every effective mutation.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.revision
}

// mutate applies fn under the write lock. fn reports whether it changed anything.
func (s *Store) mutate(fn func(*State) bool) {
	s.mu.Lock()
	changed := fn(&s.state)
	if changed {
		s.revision++
	}
	s.mu.Unlock()

	if changed {
		s.persist()
	}
}

func (s *Store) persist() {
	if s.repo == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	st, rev := s.Snapshot()
	if rev <= s.persisted {
		return // a later write already covered this revision
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if st.IsZero() {
		err = s.repo.Delete(ctx, s.key)
	} else {
		err = s.repo.Save(ctx, s.key, st)
	}
	if err != nil {
		log.Err(err).Str("session", s.key).Msg("Failed to persist session state; continuing in memory")
		return
	}
	s.persisted = rev
}

// rehydrate replaces the defaults with persisted state and reports whether
// the repo answered. A failed read leaves the defaults in place so the next
// access can try again. Once the store has been mutated locally the persisted
// copy is stale and is not applied.
func (s *Store) rehydrate(ctx context.Context) bool {
	if s.repo == nil {
		return true
	}
	st, ok, err := s.repo.Load(ctx, s.key)
	if err != nil {
		log.Err(err).Str("session", s.key).Msg("Failed to load session state; treating as logged out for now")
		return false
	}
	if !ok {
		return true
	}
	s.mu.Lock()
	if s.revision == 0 {
		s.state = st
	}
	s.mu.Unlock()
	return true
}
