package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/users"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	PageData
	Email      string // Preserve email on error
	RememberMe bool
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		remembered := rememberedEmail(r)
		email := r.URL.Query().Get("email")
		if email == "" {
			email = remembered
		}

		render(w, loginTmpl, LoginPageData{
			PageData:   s.pageData(r, "Sign in"),
			Email:      email,
			RememberMe: remembered != "",
		})
	}
}

// LoginSubmissionHandler processes the login form submission (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := users.LoginForm{
			Email:      strings.TrimSpace(r.FormValue("email")),
			Password:   r.FormValue("password"),
			RememberMe: r.FormValue("rememberMe") != "",
		}
		if err := form.Validate(); err != nil {
			s.renderLoginError(w, r, formMessage(err), form.Email)
			return
		}

		result, err := s.api.Login(r.Context(), form.Email, form.Password)
		if err != nil {
			log.Err(err).Msg("Login exchange failed")
			s.renderLoginError(w, r, backend.UserMessage(err, "Login failed. Please try again."), form.Email)
			return
		}

		if err := s.signIn(w, r, result); err != nil {
			log.Err(err).Msg("Failed to start session after login")
			s.renderLoginError(w, r, "Login failed. Please try again.", form.Email)
			return
		}

		if form.RememberMe {
			s.SetRememberEmailCookie(w, form.Email, r)
		} else {
			s.SetRememberEmailCookie(w, "", r)
		}
		redirectSuccess(w, r, RouteDashboard)
	}
}

// signIn records a successful login exchange in a freshly issued session.
// Any session the browser already had is logged out and dropped.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, result backend.LoginResult) error {
	if exp, ok := backend.TokenExpiry(result.Token); ok && !exp.After(time.Now()) {
		return errors.Wrapf(errors.ErrUnauthenticated, "[Server signIn] token expired at %s", exp.Format(time.RFC3339))
	}
	if oldID := sessionID(r); oldID != "" {
		currentStore(r).Logout()
		s.endSession(oldID)
	}

	_, store, err := s.startSession(w, r, result.Token)
	if err != nil {
		return err
	}
	store.Login(result.Token, result.User.ProfileCompleted)
	return nil
}

// LogoutHandler resets the session and drops everything held for it (POST /logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentStore(r).Logout()
		s.endSession(sessionID(r))
		s.ClearSessionCookie(w, r)
		redirectSuccess(w, r, RouteIndex)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	redirectURL := withQuery(RouteLogin, "error", errorMsg)
	if email != "" {
		redirectURL = withQuery(redirectURL, "email", email)
	}
	redirectSuccess(w, r, redirectURL)
}

// formMessage picks the message to show for a form validation error
func formMessage(err error) string {
	var fe users.FieldErrors
	if errors.As(err, &fe) {
		if msg, ok := fe[users.FormError]; ok {
			return msg
		}
	}
	return err.Error()
}
