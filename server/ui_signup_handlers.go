package server

import (
	"net/http"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/users"
	"github.com/rs/zerolog/log"
)

// SignupPageData is the signup page model. Passwords are never echoed back.
type SignupPageData struct {
	PageData
	Form   users.SignupForm
	Fields users.FieldErrors
}

// SignupGetHandler renders the signup page (GET /signup)
func (s *Server) SignupGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signup.html")
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, SignupPageData{PageData: s.pageData(r, "Create account")})
	}
}

// SignupPostHandler registers the account, signs the user in and sends them
// to onboarding (POST /signup)
func (s *Server) SignupPostHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signup.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := users.SignupForm{
			FullName:        r.FormValue("fullName"),
			Email:           r.FormValue("email"),
			Password:        r.FormValue("password"),
			ConfirmPassword: r.FormValue("confirmPassword"),
			AcceptTerms:     r.FormValue("acceptTerms") != "",
		}.Normalize()

		page := func(fields users.FieldErrors) {
			data := SignupPageData{PageData: s.pageData(r, "Create account"), Form: form, Fields: fields}
			data.Form.Password, data.Form.ConfirmPassword = "", ""
			if msg, ok := fields[users.FormError]; ok {
				data.Error = msg
			}
			renderStatus(w, http.StatusUnprocessableEntity, tmpl, data)
		}

		if err := form.Validate(); err != nil {
			var fe users.FieldErrors
			if !errors.As(err, &fe) {
				fe = users.FieldErrors{users.FormError: err.Error()}
			}
			page(fe)
			return
		}

		if err := s.api.Signup(r.Context(), form.FullName, form.Email, form.Password); err != nil {
			log.Err(err).Msg("Signup exchange failed")
			page(users.FieldErrors{users.FormError: backend.UserMessage(err, "Signup failed. Please try again.")})
			return
		}

		result, err := s.api.Login(r.Context(), form.Email, form.Password)
		if err != nil {
			log.Err(err).Msg("Login after signup failed")
			redirectSuccess(w, r, withQuery(withQuery(RouteLogin, "notice", "Account created. Please sign in."), "email", form.Email))
			return
		}
		if err := s.signIn(w, r, result); err != nil {
			log.Err(err).Msg("Failed to start session after signup")
			redirectWithError(w, r, RouteLogin, "Login failed. Please try again.")
			return
		}
		redirectSuccess(w, r, RouteOnboarding)
	}
}
