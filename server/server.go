package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/chat"
	"github.com/jrsteele09/counsellor-web/gate"
	"github.com/jrsteele09/counsellor-web/internal/config"
	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/jrsteele09/counsellor-web/tasks"
	"github.com/rs/zerolog/log"
)

// Backend is the part of the backend API the pages call
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Signup(ctx context.Context, fullName, email, password string) error
	FetchProfile(ctx context.Context, token string) (*backend.Profile, error)
	SaveProfile(ctx context.Context, token string, profile backend.ProfileSubmission) error
	Shortlist(ctx context.Context, token string) ([]backend.ShortlistItem, error)
	AddToShortlist(ctx context.Context, token string, req backend.ShortlistRequest) error
	RemoveFromShortlist(ctx context.Context, token string, id int64) error
	Lock(ctx context.Context, token string, id int64) error
	Tasks(ctx context.Context, token string) ([]backend.Task, error)
	Chat(ctx context.Context, token string, req backend.ChatRequest) (backend.ChatReply, error)
}

var _ Backend = (*backend.Client)(nil)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions *sessions.Manager
	api      Backend
	boards   *tasks.Boards
	chats    *chat.Conversations

	requireLogin   *gate.Gate
	requireProfile *gate.Gate
}

func New(config config.Config, manager *sessions.Manager, api Backend) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("[Server New] session manager is required")
	}
	if api == nil {
		return nil, fmt.Errorf("[Server New] backend client is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		sessions: manager,
		api:      api,
		boards:   tasks.NewBoards(),
		chats:    chat.NewConversations(chat.DefaultMaxMessages),
	}
	s.env = config.GetEnv()

	manager.OnEvict(func(sessionID string) {
		s.boards.Forget(sessionID)
		s.chats.Forget(sessionID)
	})

	s.requireLogin = s.newGate(gate.Options{RequireLogin: true})
	s.requireProfile = s.newGate(gate.Options{RequireLogin: true, RequireProfile: true})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) newGate(opts gate.Options) *gate.Gate {
	return gate.New(opts, s.api,
		gate.WithTimeout(s.config.GetProfileCheckTimeout()),
		gate.WithMaxPasses(s.config.GetMaxGatePasses()),
		gate.WithPaths(RouteLogin, RouteOnboarding),
		gate.WithRedirect(redirectSuccess),
	)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
