package sessions_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/jrsteele09/counsellor-web/sessions/memstore"
	"github.com/stretchr/testify/require"
)

const testKey = "auth-storage:test"

func newTestStore(t *testing.T) (*sessions.Store, *memstore.InMemoryRepo) {
	t.Helper()
	repo := memstore.New()
	return sessions.NewStore(testKey, repo), repo
}

func TestStore_Defaults(t *testing.T) {
	store, _ := newTestStore(t)
	st, rev := store.Snapshot()
	require.Equal(t, sessions.State{}, st)
	require.Zero(t, rev)
}

func TestStore_Login(t *testing.T) {
	cases := []struct {
		name             string
		token            string
		profileCompleted bool
	}{
		{name: "profile incomplete", token: "tok-a", profileCompleted: false},
		{name: "profile complete", token: "tok-b", profileCompleted: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			store.Login(tc.token, tc.profileCompleted)

			st := store.State()
			require.True(t, st.IsLoggedIn)
			require.Equal(t, tc.token, st.Token)
			require.Equal(t, tc.profileCompleted, st.ProfileComplete)
		})
	}

	t.Run("empty token is ignored", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.Login("", true)
		require.Equal(t, sessions.State{}, store.State())
	})

	t.Run("login replaces a previous session", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.Login("tok-old", true)
		store.Login("tok-new", false)
		require.Equal(t, sessions.State{Token: "tok-new", IsLoggedIn: true}, store.State())
	})
}

func TestStore_Logout(t *testing.T) {
	store, repo := newTestStore(t)
	store.Login("tok", true)
	require.Equal(t, 1, repo.Len())

	store.Logout()
	require.Equal(t, sessions.State{}, store.State())
	require.Zero(t, repo.Len(), "logout removes the persisted entry")

	_, rev := store.Snapshot()
	store.Logout()
	require.Equal(t, sessions.State{}, store.State())
	_, rev2 := store.Snapshot()
	require.Equal(t, rev, rev2, "second logout is a no-op")
}

func TestStore_CompleteProfile(t *testing.T) {
	t.Run("idempotent and leaves login untouched", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.Login("tok", false)

		store.CompleteProfile()
		require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, store.State())

		store.CompleteProfile()
		require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, store.State())
	})

	t.Run("no effect while logged out", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.CompleteProfile()
		require.Equal(t, sessions.State{}, store.State())
	})
}

func TestStore_CompleteProfileAt(t *testing.T) {
	t.Run("applies at current revision", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.Login("tok", false)
		_, rev := store.Snapshot()

		require.True(t, store.CompleteProfileAt(rev))
		require.True(t, store.State().ProfileComplete)
	})

	t.Run("ignored after logout", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.Login("tok", false)
		_, rev := store.Snapshot()
		store.Logout()

		require.False(t, store.CompleteProfileAt(rev))
		require.Equal(t, sessions.State{}, store.State())
	})

	t.Run("ignored after re-login", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.Login("tok-1", false)
		_, rev := store.Snapshot()
		store.Login("tok-2", false)

		require.False(t, store.CompleteProfileAt(rev))
		require.False(t, store.State().ProfileComplete)
	})
}

func TestStore_PersistenceFailureDegradesToMemory(t *testing.T) {
	store, repo := newTestStore(t)
	require.NoError(t, repo.Close())

	require.NotPanics(t, func() {
		store.Login("tok", false)
		store.CompleteProfile()
	})
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, store.State())

	store.Logout()
	require.Equal(t, sessions.State{}, store.State())
}

func TestStore_NilRepoIsMemoryOnly(t *testing.T) {
	store := sessions.NewStore(testKey, nil)
	store.Login("tok", true)
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true, ProfileComplete: true}, store.State())
}

// Readers must never see a logged-in state without a token or the reverse.
func TestStore_NoObservableDivergence(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			store.Login("tok", i%2 == 0)
			store.CompleteProfile()
			store.Logout()
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
			require.True(t, store.State().Valid())
		}
	}
}

func TestState_MarshalRoundTrip(t *testing.T) {
	states := []sessions.State{
		{},
		{Token: "tok", IsLoggedIn: true},
		{Token: "tok", IsLoggedIn: true, ProfileComplete: true},
	}
	for _, want := range states {
		data, err := sessions.Marshal(want)
		require.NoError(t, err)
		got, err := sessions.Unmarshal(data)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestState_UnmarshalRejectsInconsistentState(t *testing.T) {
	for _, payload := range []string{
		`{"token":"tok","isLoggedIn":false,"profileComplete":false}`,
		`{"isLoggedIn":true,"profileComplete":false}`,
		`{"isLoggedIn":false,"profileComplete":true}`,
		`not json`,
	} {
		_, err := sessions.Unmarshal([]byte(payload))
		require.Error(t, err, payload)
	}
}

func TestStore_Rehydrate(t *testing.T) {
	repo := memstore.New()
	require.NoError(t, repo.Save(context.Background(), "auth-storage:"+fixedSessionID, sessions.State{Token: "tok", IsLoggedIn: true}))

	m := sessions.NewManager("", repo)
	store, err := m.Get(context.Background(), fixedSessionID)
	require.NoError(t, err)
	require.Equal(t, sessions.State{Token: "tok", IsLoggedIn: true}, store.State())
}
