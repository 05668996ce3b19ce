package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// ACCOUNT
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteSignup, ChainMiddleware(s.SignupGetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// ONBOARDING + DASHBOARD (login only, these pages establish the profile)
	s.RegisterRouteFunc("GET "+RouteOnboarding, ChainMiddleware(s.OnboardingGetHandler(), s.HTMLMiddleWare(s.requireLogin.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteOnboarding, ChainMiddleware(s.OnboardingPostHandler(), s.HTMLMiddleWare(s.requireLogin.Middleware)...))
	s.RegisterRouteFunc("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.requireLogin.Middleware)...))

	// UNIVERSITIES
	s.RegisterRouteFunc("GET "+RouteUniversities, ChainMiddleware(s.UniversitiesHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteUniversitiesToggle, ChainMiddleware(s.ShortlistToggleHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteUniversitiesLock, ChainMiddleware(s.UniversityLockHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))
	s.RegisterRouteFunc("GET "+RouteLock, ChainMiddleware(s.LockPageHandler(), s.HTMLMiddleWare(s.requireLogin.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteLockUniversity, ChainMiddleware(s.LockSubmissionHandler(), s.HTMLMiddleWare(s.requireLogin.Middleware)...))

	// TASKS
	s.RegisterRouteFunc("GET "+RouteTasks, ChainMiddleware(s.TasksHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteTasks, ChainMiddleware(s.TaskAddHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteTaskToggle, ChainMiddleware(s.TaskToggleHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteTaskDelete, ChainMiddleware(s.TaskDeleteHandler(), s.HTMLMiddleWare(s.requireProfile.Middleware)...))

	// CHAT (works logged out; the token is used when present)
	s.RegisterRouteFunc("GET "+RouteChat, ChainMiddleware(s.ChatPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteChat, ChainMiddleware(s.ChatSubmissionHandler(), s.HTMLMiddleWare()...))

	// SYSTEM
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())

	s.RegisterRouteFunc("GET "+RouteStaticCSS, ChainMiddleware(AssetHandler("css"), s.StaticMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteStaticJS, ChainMiddleware(AssetHandler("js"), s.StaticMiddleware()...))
}

// HealthzHandler reports liveness, the number of sessions held in memory and
// whether the session repo is reachable
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := s.sessions.Health(ctx); err != nil {
			log.Err(err).Msg("Session repo health check failed")
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   status,
			"sessions": s.sessions.Len(),
		})
	}
}
