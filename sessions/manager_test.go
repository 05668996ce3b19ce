package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/jrsteele09/counsellor-web/sessions/memstore"
	"github.com/stretchr/testify/require"
)

const fixedSessionID = "0b7c3a8e-4f0e-4d6e-9a53-2c1f4f1b8a11"

func TestManager_GetReturnsSameStore(t *testing.T) {
	m := sessions.NewManager("auth-storage", memstore.New())
	ctx := context.Background()

	a, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	b, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, "auth-storage:"+fixedSessionID, a.Key())
}

func TestManager_RejectsMalformedID(t *testing.T) {
	m := sessions.NewManager("auth-storage", memstore.New())
	for _, id := range []string{"", "not-a-uuid", "../../etc/passwd"} {
		_, err := m.Get(context.Background(), id)
		require.ErrorIs(t, err, errors.ErrSessionNotFound, id)
	}
}

func TestManager_NewSessionIDIsUsable(t *testing.T) {
	m := sessions.NewManager("auth-storage", memstore.New())
	id := m.NewSessionID()
	_, err := m.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotEqual(t, id, m.NewSessionID())
}

func TestManager_EvictedStoreRehydrates(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	m := sessions.NewManager("auth-storage", memstore.New(), sessions.WithIdleTTL(time.Minute), sessions.WithClock(clock))
	ctx := context.Background()

	store, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	store.Login("tok", true)

	require.Zero(t, m.EvictIdle())
	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, m.EvictIdle())
	require.Zero(t, m.Len())

	again, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.NotSame(t, store, again)
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, again.State())
}

func TestManager_ForgetKeepsPersistedState(t *testing.T) {
	m := sessions.NewManager("auth-storage", memstore.New())
	ctx := context.Background()

	store, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	store.Login("tok", false)

	m.Forget(fixedSessionID)
	again, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true}, again.State())
}

// flakyRepo fails the first failLoads reads and honours cancellation like a
// networked repo would
type flakyRepo struct {
	*memstore.InMemoryRepo
	failLoads int
	healthErr error
}

func (r *flakyRepo) Load(ctx context.Context, key string) (sessions.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return sessions.State{}, false, err
	}
	if r.failLoads > 0 {
		r.failLoads--
		return sessions.State{}, false, errors.ErrStorageClosed
	}
	return r.InMemoryRepo.Load(ctx, key)
}

func (r *flakyRepo) Health(context.Context) error {
	return r.healthErr
}

func persistedLogin(t *testing.T, repo sessions.Repo) {
	t.Helper()
	store, err := sessions.NewManager("auth-storage", repo).Get(context.Background(), fixedSessionID)
	require.NoError(t, err)
	store.Login("tok", true)
}

func TestManager_RehydrateIgnoresCancelledRequest(t *testing.T) {
	repo := &flakyRepo{InMemoryRepo: memstore.New()}
	persistedLogin(t, repo)

	m := sessions.NewManager("auth-storage", repo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, store.State())
}

func TestManager_RehydrateRetriesAfterFailedRead(t *testing.T) {
	repo := &flakyRepo{InMemoryRepo: memstore.New()}
	persistedLogin(t, repo)
	repo.failLoads = 1

	m := sessions.NewManager("auth-storage", repo)
	ctx := context.Background()

	first, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.False(t, first.State().IsLoggedIn, "a failed read degrades this access only")

	second, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, second.State())
}

func TestManager_RehydrateKeepsLocalChanges(t *testing.T) {
	repo := &flakyRepo{InMemoryRepo: memstore.New()}
	persistedLogin(t, repo)
	repo.failLoads = 1

	m := sessions.NewManager("auth-storage", repo)
	ctx := context.Background()

	store, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	store.Login("newer", false)

	again, err := m.Get(ctx, fixedSessionID)
	require.NoError(t, err)
	require.Equal(t, sessions.State{Token: "newer", IsLoggedIn: true}, again.State())
}

func TestManager_OnEvict(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := sessions.NewManager("auth-storage", memstore.New(),
		sessions.WithIdleTTL(time.Minute),
		sessions.WithClock(func() time.Time { return now }))

	var dropped []string
	m.OnEvict(func(id string) { dropped = append(dropped, id) })

	_, err := m.Get(context.Background(), fixedSessionID)
	require.NoError(t, err)

	m.Forget("unrelated")
	require.Empty(t, dropped)

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, m.EvictIdle())
	require.Equal(t, []string{fixedSessionID}, dropped)
}

func TestManager_Health(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, sessions.NewManager("auth-storage", memstore.New()).Health(ctx))
	require.NoError(t, sessions.NewManager("auth-storage", nil).Health(ctx))

	repo := &flakyRepo{InMemoryRepo: memstore.New(), healthErr: errors.ErrStorageClosed}
	require.ErrorIs(t, sessions.NewManager("auth-storage", repo).Health(ctx), errors.ErrStorageClosed)
}
