package server

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/shortlist"
	"github.com/rs/zerolog/log"
)

// SortOption is one entry of the discovery sort menu
type SortOption struct {
	Value string
	Label string
}

var sortOptions = []SortOption{
	{shortlist.SortMatch, "Best match"},
	{shortlist.SortName, "Name"},
	{shortlist.SortTuition, "Tuition"},
	{shortlist.SortDeadline, "Deadline"},
}

type UniversitiesPageData struct {
	PageData
	Filter    shortlist.Filter
	Query     string // current filters, posted back so actions return to the same view
	Views     []shortlist.View
	Stats     shortlist.MatchStats
	Countries []string
	Sorts     []SortOption
}

// parseUniversityFilter reads the discovery filters from a query string
func parseUniversityFilter(q url.Values) shortlist.Filter {
	f := shortlist.Filter{
		Search:    q.Get("search"),
		Country:   q.Get("country"),
		SavedOnly: q.Get("saved") != "",
		SortBy:    q.Get("sort"),
	}
	if m, err := strconv.Atoi(q.Get("minMatch")); err == nil && m > 0 {
		f.MinMatch = m
	}
	return f
}

// filterQuery rebuilds the query string from only the known filter keys
func filterQuery(q url.Values, keys ...string) string {
	out := url.Values{}
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out.Encode()
}

var universityFilterKeys = []string{"search", "country", "minMatch", "saved", "sort"}

// postedFilters returns the discovery filters carried by an action form
func postedFilters(r *http.Request) url.Values {
	q, err := url.ParseQuery(r.FormValue("query"))
	if err != nil {
		return url.Values{}
	}
	return q
}

func universitiesReturn(r *http.Request) string {
	if encoded := filterQuery(postedFilters(r), universityFilterKeys...); encoded != "" {
		return RouteUniversities + "?" + encoded
	}
	return RouteUniversities
}

// universitiesPage joins the catalog with set and applies the filters in q
func (s *Server) universitiesPage(r *http.Request, q url.Values, set *shortlist.Set) UniversitiesPageData {
	data := UniversitiesPageData{
		PageData:  s.pageData(r, "Discover universities"),
		Filter:    parseUniversityFilter(q),
		Query:     filterQuery(q, universityFilterKeys...),
		Countries: shortlist.CountryFilters,
		Sorts:     sortOptions,
	}
	all := set.Annotate(shortlist.Catalog())
	data.Views = data.Filter.Apply(all)
	data.Stats = shortlist.Stats(all)
	return data
}

// renderUniversitiesFailure shows the discovery page from set after a failed
// action. set has already been rolled back, so the page shows what the
// backend still holds.
func (s *Server) renderUniversitiesFailure(w http.ResponseWriter, r *http.Request, tmpl *template.Template, set *shortlist.Set, msg string) {
	data := s.universitiesPage(r, postedFilters(r), set)
	data.Error = msg
	data.Notice = ""
	renderStatus(w, http.StatusBadGateway, tmpl, data)
}

// UniversitiesHandler renders the discovery catalog joined with the user's
// shortlist (GET /universities)
func (s *Server) UniversitiesHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("universities.html")

	return func(w http.ResponseWriter, r *http.Request) {
		set, err := shortlist.Load(r.Context(), s.api, currentStore(r).State().Token)
		if err != nil {
			log.Err(err).Msg("Failed to load shortlist")
			set = shortlist.NewSet(nil)
		}

		data := s.universitiesPage(r, r.URL.Query(), set)
		if err != nil && data.Error == "" {
			data.Error = "Could not load your shortlist. Saved universities may not be marked."
		}
		render(w, tmpl, data)
	}
}

// postedUniversity resolves the universityId form value against the catalog
func postedUniversity(r *http.Request) (shortlist.University, bool) {
	id, err := strconv.Atoi(r.FormValue("universityId"))
	if err != nil {
		return shortlist.University{}, false
	}
	return shortlist.Find(id)
}

// ShortlistToggleHandler saves or unsaves a university (POST /universities/shortlist)
func (s *Server) ShortlistToggleHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("universities.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := universitiesReturn(r)

		uni, ok := postedUniversity(r)
		if !ok {
			redirectWithError(w, r, back, "Unknown university")
			return
		}

		token := currentStore(r).State().Token
		set, err := shortlist.Load(r.Context(), s.api, token)
		if err != nil {
			log.Err(err).Msg("Failed to load shortlist before toggle")
			redirectWithError(w, r, back, backend.UserMessage(err, "Failed to update shortlist. Please try again."))
			return
		}

		saved, err := set.Toggle(r.Context(), s.api, token, uni)
		if err != nil {
			s.renderUniversitiesFailure(w, r, tmpl, set, backend.UserMessage(err, "Failed to update shortlist. Please try again."))
			return
		}

		notice := uni.Name + " removed from your shortlist"
		if saved {
			notice = uni.Name + " added to your shortlist"
		}
		redirectSuccess(w, r, withQuery(back, "notice", notice))
	}
}

// UniversityLockHandler locks a shortlisted university from the discovery
// page (POST /universities/lock)
func (s *Server) UniversityLockHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("universities.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := universitiesReturn(r)

		uni, ok := postedUniversity(r)
		if !ok {
			redirectWithError(w, r, back, "Unknown university")
			return
		}

		token := currentStore(r).State().Token
		set, err := shortlist.Load(r.Context(), s.api, token)
		if err != nil {
			log.Err(err).Msg("Failed to load shortlist before lock")
			redirectWithError(w, r, back, backend.UserMessage(err, "Failed to lock university. Please try again."))
			return
		}

		err = set.Lock(r.Context(), s.api, token, uni)
		switch {
		case errors.Is(err, errors.ErrNotShortlisted):
			redirectWithError(w, r, back, "Add "+uni.Name+" to your shortlist before locking it")
		case err != nil:
			log.Err(err).Str("university", uni.Name).Msg("Failed to lock university")
			s.renderUniversitiesFailure(w, r, tmpl, set, backend.UserMessage(err, "Failed to lock university. Please try again."))
		default:
			redirectSuccess(w, r, withQuery(back, "notice", uni.Name+" locked"))
		}
	}
}

type LockPageData struct {
	PageData
	Shortlist []backend.ShortlistItem
}

// LockPageHandler lists the shortlist so the user can commit to a university (GET /lock)
func (s *Server) LockPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("lock.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := LockPageData{PageData: s.pageData(r, "Lock your university")}

		items, err := s.api.Shortlist(r.Context(), currentStore(r).State().Token)
		if err != nil {
			log.Err(err).Msg("Failed to load shortlist for lock page")
			if data.Error == "" {
				data.Error = "Failed to load shortlist"
			}
		}
		data.Shortlist = items
		render(w, tmpl, data)
	}
}

// LockSubmissionHandler locks a shortlist entry and moves on to tasks (POST /lock/{id})
func (s *Server) LockSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			redirectWithError(w, r, RouteLock, "Invalid university")
			return
		}

		if err := s.api.Lock(r.Context(), currentStore(r).State().Token, id); err != nil {
			log.Err(err).Int64("entry", id).Msg("Failed to lock university")
			redirectWithError(w, r, RouteLock, backend.UserMessage(err, "Failed to lock university. Please try again."))
			return
		}
		redirectSuccess(w, r, RouteTasks)
	}
}
