package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/jrsteele09/counsellor-web/sessions/sqlitestore"
	"github.com/stretchr/testify/require"
)

const testSessionID = "6f1d0f3c-2d52-4f53-8d1e-1f7c9e0f5b2a"

func openTestStore(t *testing.T, path string, opts ...sqlitestore.Option) *sqlitestore.Store {
	t.Helper()
	store, err := sqlitestore.Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlitestore.Open("  ")
	require.Error(t, err)
}

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "sessions.db"))

	_, ok, err := store.Load(ctx, "auth-storage:missing")
	require.NoError(t, err)
	require.False(t, ok)

	want := sessions.State{Token: "tok", IsLoggedIn: true}
	require.NoError(t, store.Save(ctx, "auth-storage:a", want))

	got, ok, err := store.Load(ctx, "auth-storage:a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	want.ProfileComplete = true
	require.NoError(t, store.Save(ctx, "auth-storage:a", want), "save upserts")
	got, _, err = store.Load(ctx, "auth-storage:a")
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, store.Delete(ctx, "auth-storage:a"))
	_, ok, err = store.Load(ctx, "auth-storage:a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := openTestStore(t, filepath.Join(t.TempDir(), "sessions.db"),
		sqlitestore.WithTTL(time.Hour),
		sqlitestore.WithClock(func() time.Time { return now }),
	)

	require.NoError(t, store.Save(ctx, "k", sessions.State{Token: "tok", IsLoggedIn: true}))
	_, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, err = store.Load(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

// Session state written by one process is rehydrated field-for-field by the next.
func TestStore_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")
	ctx := context.Background()

	first, err := sqlitestore.Open(path)
	require.NoError(t, err)
	m1 := sessions.NewManager("auth-storage", first)
	store, err := m1.Get(ctx, testSessionID)
	require.NoError(t, err)
	store.Login("tok-restart", false)
	store.CompleteProfile()
	require.NoError(t, m1.Close())

	second := openTestStore(t, path)
	m2 := sessions.NewManager("auth-storage", second)
	rehydrated, err := m2.Get(ctx, testSessionID)
	require.NoError(t, err)
	require.Equal(t, sessions.State{Token: "tok-restart", IsLoggedIn: true, ProfileComplete: true}, rehydrated.State())
}

func TestStore_Health(t *testing.T) {
	ctx := context.Background()
	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)

	manager := sessions.NewManager("auth-storage", store)
	require.NoError(t, manager.Health(ctx))

	require.NoError(t, store.Close())
	require.Error(t, manager.Health(ctx))
}
