package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultNamespace = "auth-storage"

	loadTimeout = 5 * time.Second
)

type entry struct {
	store    *Store
	lastUsed time.Time

	loadMu sync.Mutex
	loaded bool
}

// load rehydrates the store until an attempt succeeds. The read is detached
// from the caller's cancellation, so a dropped request cannot leave a
// persisted login looking logged out.
func (e *entry) load(ctx context.Context) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if e.loaded {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()
	e.loaded = e.store.rehydrate(ctx)
}

// HealthChecker is implemented by repos that can report on their connection
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Manager maps session ids (the value of the session cookie) to their Store.
// Stores are created on first access and rehydrated from the Repo before use.
type Manager struct {
	namespace string
	repo      Repo
	idleTTL   time.Duration
	now       func() time.Time

	mu      sync.Mutex
	stores  map[string]*entry
	onEvict []func(sessionID string)
}

type ManagerOption func(*Manager)

// WithIdleTTL evicts stores that have not been used for ttl. Zero disables eviction.
func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTTL = ttl
	}
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(namespace string, repo Repo, opts ...ManagerOption) *Manager {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Manager{
		namespace: namespace,
		repo:      repo,
		now:       time.Now,
		stores:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewSessionID generates an id for a new browser session
func (m *Manager) NewSessionID() string {
	return uuid.New().String()
}

// Key returns the persistence key for a session id
func (m *Manager) Key(sessionID string) string {
	return fmt.Sprintf("%s:%s", m.namespace, sessionID)
}

// Get returns the store for sessionID, creating and rehydrating it on first access.
// Ids that were not issued by NewSessionID are rejected with ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "[Manager Get] malformed session id")
	}

	m.mu.Lock()
	e, ok := m.stores[sessionID]
	if !ok {
		e = &entry{store: NewStore(m.Key(sessionID), m.repo)}
		m.stores[sessionID] = e
	}
	e.lastUsed = m.now()
	m.mu.Unlock()

	e.load(ctx)
	return e.store, nil
}

// Forget drops the in-memory store for sessionID. Persisted state is untouched.
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}

// Len returns the number of stores held in memory
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// OnEvict registers fn to run for every session dropped by EvictIdle, so
// state kept beside the store can be released with it.
func (m *Manager) OnEvict(fn func(sessionID string)) {
	m.mu.Lock()
	m.onEvict = append(m.onEvict, fn)
	m.mu.Unlock()
}

// EvictIdle drops stores unused for longer than the idle TTL and returns how many were dropped.
func (m *Manager) EvictIdle() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var evicted []string
	for id, e := range m.stores {
		if e.lastUsed.Before(cutoff) {
			delete(m.stores, id)
			evicted = append(evicted, id)
		}
	}
	hooks := append([]func(string){}, m.onEvict...)
	m.mu.Unlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return len(evicted)
}

// Health reports whether the repo is reachable. Repos without a health
// check are always healthy.
func (m *Manager) Health(ctx context.Context) error {
	if hc, ok := m.repo.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// Run evicts idle stores periodically until ctx is cancelled
func (m *Manager) Run(ctx context.Context) {
	if m.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(m.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				log.Debug().Int("evicted", n).Msg("Evicted idle session stores")
			}
		}
	}
}

// Close releases the underlying repo
func (m *Manager) Close() error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
