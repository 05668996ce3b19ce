package shortlist

import (
	"context"
	"strconv"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/rs/zerolog/log"
)

// DefaultCategory is sent for universities saved from the discovery page
const DefaultCategory = "Target"

// API is the part of the backend client the shortlist needs
type API interface {
	Shortlist(ctx context.Context, token string) ([]backend.ShortlistItem, error)
	AddToShortlist(ctx context.Context, token string, req backend.ShortlistRequest) error
	RemoveFromShortlist(ctx context.Context, token string, id int64) error
	Lock(ctx context.Context, token string, id int64) error
}

type entry struct {
	saved  bool
	locked bool
}

// Set is the shortlist as seen by one request, keyed by university name.
// The backend stores names, not catalog ids, so names are the join key.
type Set struct {
	entries map[string]entry
}

func NewSet(items []backend.ShortlistItem) *Set {
	s := &Set{entries: make(map[string]entry, len(items))}
	for _, it := range items {
		s.entries[it.UniversityName] = entry{saved: true, locked: it.IsLocked}
	}
	return s
}

// Load builds the set from the backend shortlist
func Load(ctx context.Context, api API, token string) (*Set, error) {
	items, err := api.Shortlist(ctx, token)
	if err != nil {
		return nil, err
	}
	return NewSet(items), nil
}

func (s *Set) Saved(name string) bool {
	return s.entries[name].saved
}

func (s *Set) Locked(name string) bool {
	return s.entries[name].locked
}

func (s *Set) Len() int {
	n := 0
	for _, e := range s.entries {
		if e.saved {
			n++
		}
	}
	return n
}

// Annotate joins the catalog with the set
func (s *Set) Annotate(unis []University) []View {
	views := make([]View, len(unis))
	for i, u := range unis {
		e := s.entries[u.Name]
		views[i] = View{University: u, Saved: e.saved, Locked: e.locked}
	}
	return views
}

// Tx is a local change to one university that can be undone. It captures
// the entry as it was before Begin so Rollback restores exactly that.
type Tx struct {
	set    *Set
	name   string
	before entry
	had    bool
	done   bool
}

// Begin starts a transaction on name
func (s *Set) Begin(name string) *Tx {
	before, had := s.entries[name]
	return &Tx{set: s, name: name, before: before, had: had}
}

func (tx *Tx) setSaved(saved bool) {
	e := tx.set.entries[tx.name]
	e.saved = saved
	if !saved {
		e.locked = false
	}
	tx.set.entries[tx.name] = e
}

func (tx *Tx) setLocked() {
	e := tx.set.entries[tx.name]
	e.locked = true
	tx.set.entries[tx.name] = e
}

// Commit keeps the change. Rollback after Commit is a no-op.
func (tx *Tx) Commit() {
	tx.done = true
}

// Rollback restores the entry captured by Begin
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	if tx.had {
		tx.set.entries[tx.name] = tx.before
		return
	}
	delete(tx.set.entries, tx.name)
}

// Toggle saves or unsaves uni. The set changes first; if the backend call
// fails the change is rolled back and the error returned. It reports whether
// uni is saved afterwards.
func (s *Set) Toggle(ctx context.Context, api API, token string, uni University) (bool, error) {
	wasSaved := s.Saved(uni.Name)

	tx := s.Begin(uni.Name)
	tx.setSaved(!wasSaved)

	var err error
	if wasSaved {
		err = remove(ctx, api, token, uni.Name)
	} else {
		err = api.AddToShortlist(ctx, token, backend.ShortlistRequest{
			UniversityName: uni.Name,
			UniversityID:   strconv.Itoa(uni.ID),
			Location:       uni.Location,
			Category:       DefaultCategory,
		})
	}
	if err != nil {
		tx.Rollback()
		log.Err(err).Str("university", uni.Name).Bool("wasSaved", wasSaved).Msg("Shortlist toggle failed; rolled back")
		return wasSaved, errors.Wrapf(err, "[Set Toggle] %s", uni.Name)
	}
	tx.Commit()
	return !wasSaved, nil
}

// remove deletes the backend entry for name. The delete needs the backend's
// entry id, so the current shortlist is fetched to find it.
func remove(ctx context.Context, api API, token, name string) error {
	id, ok, err := entryID(ctx, api, token, name)
	if err != nil || !ok {
		return err
	}
	return api.RemoveFromShortlist(ctx, token, id)
}

func entryID(ctx context.Context, api API, token, name string) (int64, bool, error) {
	items, err := api.Shortlist(ctx, token)
	if err != nil {
		return 0, false, err
	}
	for _, it := range items {
		if it.UniversityName == name {
			return it.ID, true, nil
		}
	}
	return 0, false, nil
}

// Lock commits to uni, which must already be saved
func (s *Set) Lock(ctx context.Context, api API, token string, uni University) error {
	if !s.Saved(uni.Name) {
		return errors.Wrapf(errors.ErrNotShortlisted, "[Set Lock] %s", uni.Name)
	}
	if s.Locked(uni.Name) {
		return nil
	}

	id, ok, err := entryID(ctx, api, token, uni.Name)
	if err != nil {
		return errors.Wrapf(err, "[Set Lock] %s", uni.Name)
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotShortlisted, "[Set Lock] %s missing from backend shortlist", uni.Name)
	}

	tx := s.Begin(uni.Name)
	tx.setLocked()
	if err := api.Lock(ctx, token, id); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "[Set Lock] %s", uni.Name)
	}
	tx.Commit()
	return nil
}
