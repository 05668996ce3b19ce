package shortlist_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/shortlist"
	"github.com/stretchr/testify/require"
)

const testToken = "tok"

// fakeAPI keeps a backend-side shortlist and can be told to fail
type fakeAPI struct {
	items   []backend.ShortlistItem
	nextID  int64
	failAdd error
	failDel error
	failGet error
	failLck error
	added   []backend.ShortlistRequest
	removed []int64
	locked  []int64
}

func (f *fakeAPI) Shortlist(context.Context, string) ([]backend.ShortlistItem, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	return append([]backend.ShortlistItem(nil), f.items...), nil
}

func (f *fakeAPI) AddToShortlist(_ context.Context, _ string, req backend.ShortlistRequest) error {
	if f.failAdd != nil {
		return f.failAdd
	}
	f.nextID++
	f.added = append(f.added, req)
	f.items = append(f.items, backend.ShortlistItem{ID: f.nextID, UniversityName: req.UniversityName, UniversityID: req.UniversityID})
	return nil
}

func (f *fakeAPI) RemoveFromShortlist(_ context.Context, _ string, id int64) error {
	if f.failDel != nil {
		return f.failDel
	}
	f.removed = append(f.removed, id)
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) Lock(_ context.Context, _ string, id int64) error {
	if f.failLck != nil {
		return f.failLck
	}
	f.locked = append(f.locked, id)
	return nil
}

func uni(t *testing.T, id int) shortlist.University {
	t.Helper()
	u, ok := shortlist.Find(id)
	require.True(t, ok)
	return u
}

func TestCatalog(t *testing.T) {
	cat := shortlist.Catalog()
	require.Len(t, cat, 8)
	cat[0].Name = "changed"
	require.Equal(t, "Stanford University", shortlist.Catalog()[0].Name, "Catalog returns a copy")

	_, ok := shortlist.Find(99)
	require.False(t, ok)

	u := uni(t, 4)
	require.Equal(t, 38000, u.TuitionAmount())
	require.Equal(t, "good", u.MatchBand())
	require.Equal(t, 2025, u.DeadlineTime().Year())
}

func TestFilter_Apply(t *testing.T) {
	set := shortlist.NewSet([]backend.ShortlistItem{
		{ID: 1, UniversityName: "McGill University"},
		{ID: 2, UniversityName: "Stanford University", IsLocked: true},
	})
	views := set.Annotate(shortlist.Catalog())

	names := func(vs []shortlist.View) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = v.Name
		}
		return out
	}

	t.Run("default sorts by match", func(t *testing.T) {
		out := shortlist.Filter{}.Apply(views)
		require.Len(t, out, 8)
		require.Equal(t, "Stanford University", out[0].Name)
		require.Equal(t, "McGill University", out[7].Name)
	})

	t.Run("country", func(t *testing.T) {
		out := shortlist.Filter{Country: "Canada", SortBy: shortlist.SortName}.Apply(views)
		require.Equal(t, []string{"McGill University", "University of British Columbia", "University of Toronto", "University of Waterloo"}, names(out))

		require.Len(t, shortlist.Filter{Country: "all"}.Apply(views), 8)
		require.Empty(t, shortlist.Filter{Country: "Germany"}.Apply(views))
	})

	t.Run("min match", func(t *testing.T) {
		require.Len(t, shortlist.Filter{MinMatch: 85}.Apply(views), 3)
	})

	t.Run("search matches name or location", func(t *testing.T) {
		require.Equal(t, []string{"University of Waterloo"}, names(shortlist.Filter{Search: "waterloo"}.Apply(views)))
		require.Equal(t, []string{"Stanford University", "University of California, Berkeley"}, names(shortlist.Filter{Search: " California"}.Apply(views)))
	})

	t.Run("saved only", func(t *testing.T) {
		out := shortlist.Filter{SavedOnly: true}.Apply(views)
		require.Equal(t, []string{"Stanford University", "McGill University"}, names(out))
		require.True(t, out[0].Locked)
	})

	t.Run("tuition and deadline", func(t *testing.T) {
		require.Equal(t, "McGill University", shortlist.Filter{SortBy: shortlist.SortTuition}.Apply(views)[0].Name)
		require.Equal(t, "Massachusetts Institute of Technology", shortlist.Filter{SortBy: shortlist.SortDeadline}.Apply(views)[0].Name)
	})
}

func TestStats(t *testing.T) {
	views := shortlist.NewSet([]backend.ShortlistItem{{ID: 1, UniversityName: "McGill University"}}).Annotate(shortlist.Catalog())
	require.Equal(t, shortlist.MatchStats{Excellent: 3, Good: 5, Moderate: 0, Saved: 1}, shortlist.Stats(views))
}

func TestToggle_Add(t *testing.T) {
	api := &fakeAPI{}
	set := shortlist.NewSet(nil)
	u := uni(t, 2)

	saved, err := set.Toggle(context.Background(), api, testToken, u)
	require.NoError(t, err)
	require.True(t, saved)
	require.True(t, set.Saved(u.Name))
	require.Equal(t, []backend.ShortlistRequest{{
		UniversityName: "University of Toronto",
		UniversityID:   "2",
		Location:       "Toronto, Ontario",
		Category:       shortlist.DefaultCategory,
	}}, api.added)
}

func TestToggle_RemoveLooksUpEntryID(t *testing.T) {
	api := &fakeAPI{items: []backend.ShortlistItem{{ID: 41, UniversityName: "University of Toronto"}}}
	set, err := shortlist.Load(context.Background(), api, testToken)
	require.NoError(t, err)

	saved, err := set.Toggle(context.Background(), api, testToken, uni(t, 2))
	require.NoError(t, err)
	require.False(t, saved)
	require.False(t, set.Saved("University of Toronto"))
	require.Equal(t, []int64{41}, api.removed)
}

func TestToggle_RollsBackOnFailure(t *testing.T) {
	t.Run("failed add", func(t *testing.T) {
		api := &fakeAPI{failAdd: errors.ErrBackendUnavailable}
		set := shortlist.NewSet(nil)
		u := uni(t, 3)

		saved, err := set.Toggle(context.Background(), api, testToken, u)
		require.ErrorIs(t, err, errors.ErrBackendUnavailable)
		require.False(t, saved)
		require.False(t, set.Saved(u.Name))
		require.Zero(t, set.Len())
	})

	t.Run("failed remove keeps saved and locked", func(t *testing.T) {
		api := &fakeAPI{
			items:   []backend.ShortlistItem{{ID: 7, UniversityName: "University of Toronto", IsLocked: true}},
			failDel: errors.ErrBackendUnavailable,
		}
		set, err := shortlist.Load(context.Background(), api, testToken)
		require.NoError(t, err)

		saved, err := set.Toggle(context.Background(), api, testToken, uni(t, 2))
		require.Error(t, err)
		require.True(t, saved)
		require.True(t, set.Saved("University of Toronto"))
		require.True(t, set.Locked("University of Toronto"))
	})

	t.Run("failed lookup", func(t *testing.T) {
		set := shortlist.NewSet([]backend.ShortlistItem{{ID: 7, UniversityName: "University of Toronto"}})
		api := &fakeAPI{failGet: errors.ErrBackendUnavailable}

		_, err := set.Toggle(context.Background(), api, testToken, uni(t, 2))
		require.Error(t, err)
		require.True(t, set.Saved("University of Toronto"))
	})
}

func TestTx_CommitThenRollbackIsNoop(t *testing.T) {
	set := shortlist.NewSet(nil)
	api := &fakeAPI{}
	_, err := set.Toggle(context.Background(), api, testToken, uni(t, 1))
	require.NoError(t, err)

	tx := set.Begin("Stanford University")
	tx.Commit()
	tx.Rollback()
	require.True(t, set.Saved("Stanford University"))
}

func TestLock(t *testing.T) {
	ctx := context.Background()

	t.Run("requires shortlisting", func(t *testing.T) {
		err := shortlist.NewSet(nil).Lock(ctx, &fakeAPI{}, testToken, uni(t, 1))
		require.ErrorIs(t, err, errors.ErrNotShortlisted)
	})

	t.Run("locks by backend entry id", func(t *testing.T) {
		api := &fakeAPI{items: []backend.ShortlistItem{{ID: 12, UniversityName: "Stanford University"}}}
		set, err := shortlist.Load(ctx, api, testToken)
		require.NoError(t, err)

		require.NoError(t, set.Lock(ctx, api, testToken, uni(t, 1)))
		require.True(t, set.Locked("Stanford University"))
		require.Equal(t, []int64{12}, api.locked)

		require.NoError(t, set.Lock(ctx, api, testToken, uni(t, 1)), "locking twice is a no-op")
		require.Len(t, api.locked, 1)
	})

	t.Run("failure rolls back", func(t *testing.T) {
		api := &fakeAPI{
			items:   []backend.ShortlistItem{{ID: 12, UniversityName: "Stanford University"}},
			failLck: errors.ErrBackendUnavailable,
		}
		set, err := shortlist.Load(ctx, api, testToken)
		require.NoError(t, err)

		require.ErrorIs(t, set.Lock(ctx, api, testToken, uni(t, 1)), errors.ErrBackendUnavailable)
		require.False(t, set.Locked("Stanford University"))
		require.True(t, set.Saved("Stanford University"))
	})
}
