package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/tasks"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type TasksPageData struct {
	PageData
	Locked     []backend.ShortlistItem
	Tasks      []backend.Task
	Summary    tasks.Summary
	Filter     tasks.Filter
	Query      string
	Categories []string
}

// overlay returns the local task edits of the request's session
func (s *Server) overlay(r *http.Request) *tasks.Overlay {
	id := sessionID(r)
	if id == "" {
		return tasks.NewOverlay()
	}
	return s.boards.Get(id)
}

func tasksReturn(r *http.Request) string {
	q := url.Values{}
	if v := r.FormValue("status"); v != "" {
		q.Set("status", v)
	}
	if v := r.FormValue("priority"); v != "" {
		q.Set("priority", v)
	}
	if encoded := q.Encode(); encoded != "" {
		return RouteTasks + "?" + encoded
	}
	return RouteTasks
}

// TasksHandler shows the locked universities and the application checklist
// with the session's local edits applied (GET /tasks)
func (s *Server) TasksHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("tasks.html")

	return func(w http.ResponseWriter, r *http.Request) {
		token := currentStore(r).State().Token
		q := r.URL.Query()

		var (
			g         errgroup.Group
			shortlist []backend.ShortlistItem
			fetched   []backend.Task
			tasksErr  error
		)
		g.Go(func() error {
			items, err := s.api.Shortlist(r.Context(), token)
			if err != nil {
				log.Err(err).Msg("Tasks page shortlist fetch failed")
				return nil
			}
			shortlist = items
			return nil
		})
		g.Go(func() error {
			fetched, tasksErr = s.api.Tasks(r.Context(), token)
			return nil
		})
		_ = g.Wait()

		data := TasksPageData{
			PageData:   s.pageData(r, "Application tasks"),
			Filter:     tasks.ParseFilter(q.Get("status"), q.Get("priority")),
			Query:      filterQuery(q, "status", "priority"),
			Categories: tasks.Categories,
		}
		for _, it := range shortlist {
			if it.IsLocked {
				data.Locked = append(data.Locked, it)
			}
		}
		if tasksErr != nil {
			log.Err(tasksErr).Msg("Tasks fetch failed")
			if data.Error == "" {
				data.Error = "Failed to load tasks"
			}
		}

		all := s.overlay(r).Apply(fetched)
		data.Summary = tasks.Summarize(all)
		data.Tasks = data.Filter.Apply(all)
		render(w, tmpl, data)
	}
}

// TaskAddHandler adds a local task (POST /tasks)
func (s *Server) TaskAddHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		_, err := s.overlay(r).Add(tasks.NewTask{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Priority:    r.FormValue("priority"),
		})
		if errors.Is(err, errors.ErrInvalidInput) {
			redirectWithError(w, r, RouteTasks, "Please enter a task title")
			return
		}
		redirectSuccess(w, r, RouteTasks)
	}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// TaskToggleHandler ticks or unticks a task (POST /tasks/{id}/toggle)
func (s *Server) TaskToggleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			redirectWithError(w, r, RouteTasks, "Unknown task")
			return
		}
		s.overlay(r).Toggle(id)
		redirectSuccess(w, r, tasksReturn(r))
	}
}

// TaskDeleteHandler hides a task (POST /tasks/{id}/delete)
func (s *Server) TaskDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			redirectWithError(w, r, RouteTasks, "Unknown task")
			return
		}
		s.overlay(r).Delete(id)
		redirectSuccess(w, r, tasksReturn(r))
	}
}
