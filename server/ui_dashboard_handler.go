package server

import (
	"net/http"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/progress"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type DashboardPageData struct {
	PageData
	Profile   *backend.Profile
	Stage     progress.Stage
	Stages    []progress.Stage
	Strength  progress.Strength
	Shortlist []backend.ShortlistItem
	Locked    []backend.ShortlistItem
}

// DashboardHandler shows the journey stage and profile strength (GET /dashboard).
// Profile and shortlist are fetched concurrently; either may fail without
// failing the page.
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		store := currentStore(r)
		token := store.State().Token

		var (
			g         errgroup.Group
			profile   *backend.Profile
			shortlist []backend.ShortlistItem
		)
		g.Go(func() error {
			p, err := s.api.FetchProfile(r.Context(), token)
			if err != nil {
				log.Err(err).Msg("Dashboard profile fetch failed")
				return nil
			}
			profile = p
			return nil
		})
		g.Go(func() error {
			items, err := s.api.Shortlist(r.Context(), token)
			if err != nil {
				log.Err(err).Msg("Dashboard shortlist fetch failed")
				return nil
			}
			shortlist = items
			return nil
		})
		_ = g.Wait()

		if profile != nil {
			store.CompleteProfile()
		}

		data := DashboardPageData{
			PageData:  s.pageData(r, "Dashboard"),
			Profile:   profile,
			Stage:     progress.StageFor(shortlist),
			Stages:    progress.AllStages(),
			Strength:  progress.StrengthFor(profile),
			Shortlist: shortlist,
		}
		for _, it := range shortlist {
			if it.IsLocked {
				data.Locked = append(data.Locked, it)
			}
		}
		render(w, tmpl, data)
	}
}
