// Package tasks filters the application checklist and keeps the user's
// local edits to it.
//
// Tasks come from the backend. Ticking, deleting and adding tasks are local
// to the browser session: an Overlay records them and is re-applied on top of
// every fresh backend list.
package tasks

import (
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
)

const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"

	PriorityAll    = "all"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Categories offered when adding a task
var Categories = []string{"Documents", "Exams", "Research", "Funding", "Applications"}

const (
	defaultCategory     = "Documents"
	defaultPriority     = PriorityMedium
	defaultDeadline     = "2025-01-01"
	defaultTimeEstimate = "1 hour"
)

type Filter struct {
	Status   string
	Priority string
}

// ParseFilter reads filter values, falling back to "all" for anything unknown
func ParseFilter(status, priority string) Filter {
	f := Filter{Status: StatusAll, Priority: PriorityAll}
	switch status {
	case StatusPending, StatusCompleted:
		f.Status = status
	}
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		f.Priority = priority
	}
	return f
}

func (f Filter) Apply(tasks []backend.Task) []backend.Task {
	out := make([]backend.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status == StatusPending && t.Done {
			continue
		}
		if f.Status == StatusCompleted && !t.Done {
			continue
		}
		if f.Priority != "" && f.Priority != PriorityAll && t.Priority != f.Priority {
			continue
		}
		out = append(out, t)
	}
	return out
}

type Summary struct {
	Pending     int
	Completed   int
	HighPending int
}

func Summarize(tasks []backend.Task) Summary {
	var s Summary
	for _, t := range tasks {
		if t.Done {
			s.Completed++
			continue
		}
		s.Pending++
		if t.Priority == PriorityHigh {
			s.HighPending++
		}
	}
	return s
}

// NewTask is the add-task form
type NewTask struct {
	Title       string `validate:"required"`
	Description string
	Category    string `validate:"omitempty,oneof=Documents Exams Research Funding Applications"`
	Priority    string `validate:"omitempty,oneof=high medium low"`
}

var validate = validator.New()

// Overlay holds one session's local edits
type Overlay struct {
	mu      sync.Mutex
	flipped map[int64]bool
	deleted map[int64]bool
	added   []backend.Task
	lastID  int64
	now     func() time.Time
}

func NewOverlay() *Overlay {
	return &Overlay{
		flipped: make(map[int64]bool),
		deleted: make(map[int64]bool),
		now:     time.Now,
	}
}

// Toggle flips the done flag of task id
func (o *Overlay) Toggle(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.added {
		if o.added[i].ID == id {
			o.added[i].Done = !o.added[i].Done
			return
		}
	}
	o.flipped[id] = !o.flipped[id]
}

// Delete hides task id
func (o *Overlay) Delete(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.added {
		if o.added[i].ID == id {
			o.added = append(o.added[:i], o.added[i+1:]...)
			return
		}
	}
	o.deleted[id] = true
}

// Add appends a local task. Its id is derived from the clock and kept unique.
func (o *Overlay) Add(nt NewTask) (backend.Task, error) {
	nt.Title = strings.TrimSpace(nt.Title)
	if err := validate.Struct(nt); err != nil {
		return backend.Task{}, errors.Wrapf(errors.ErrInvalidInput, "[Overlay Add] %v", err)
	}
	if nt.Category == "" {
		nt.Category = defaultCategory
	}
	if nt.Priority == "" {
		nt.Priority = defaultPriority
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.now().UnixMilli()
	if id <= o.lastID {
		id = o.lastID + 1
	}
	o.lastID = id

	t := backend.Task{
		ID:           id,
		Title:        nt.Title,
		Description:  nt.Description,
		Priority:     nt.Priority,
		Category:     nt.Category,
		Deadline:     defaultDeadline,
		TimeEstimate: defaultTimeEstimate,
	}
	o.added = append(o.added, t)
	return t, nil
}

// Apply returns tasks with the local edits applied; local additions come last
func (o *Overlay) Apply(tasks []backend.Task) []backend.Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]backend.Task, 0, len(tasks)+len(o.added))
	for _, t := range tasks {
		if o.deleted[t.ID] {
			continue
		}
		if o.flipped[t.ID] {
			t.Done = !t.Done
		}
		out = append(out, t)
	}
	return append(out, o.added...)
}

// Boards keeps one Overlay per browser session
type Boards struct {
	mu       sync.Mutex
	overlays map[string]*Overlay
}

func NewBoards() *Boards {
	return &Boards{overlays: make(map[string]*Overlay)}
}

// Get returns the overlay for sessionID, creating it on first use
func (b *Boards) Get(sessionID string) *Overlay {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.overlays[sessionID]
	if !ok {
		o = NewOverlay()
		b.overlays[sessionID] = o
	}
	return o
}

// Forget drops the overlay, e.g. on logout
func (b *Boards) Forget(sessionID string) {
	b.mu.Lock()
	delete(b.overlays, sessionID)
	b.mu.Unlock()
}
