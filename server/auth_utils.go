package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/counsellor-web/backend"
)

const (
	// sessionCookieName carries the browser session id
	sessionCookieName = "counsellor_session"
	// rememberEmailCookieName pre-fills the login form when "remember me" was ticked
	rememberEmailCookieName = "counsellor_email"

	rememberEmailMaxAge = 30 * 24 * 60 * 60
)

func (s *Server) secureCookies(r *http.Request) bool {
	return s.config.GetCookieSecure() || getScheme(r) == "https"
}

func (s *Server) SetSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	s.SetSessionCookie(w, "", r, -1)
}

// SetRememberEmailCookie stores email for the login form; an empty email clears it
func (s *Server) SetRememberEmailCookie(w http.ResponseWriter, email string, r *http.Request) {
	maxAge := rememberEmailMaxAge
	if email == "" {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     rememberEmailCookieName,
		Value:    url.QueryEscape(email),
		Path:     RouteLogin,
		HttpOnly: true,
		Secure:   s.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func rememberedEmail(r *http.Request) string {
	cookie, err := r.Cookie(rememberEmailCookieName)
	if err != nil {
		return ""
	}
	email, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return email
}

// cookieMaxAge is the session cookie lifetime in seconds. It is the configured
// session TTL, shortened to the token's own expiry when the token is a JWT.
// A token that has already expired yields -1, which deletes the cookie.
func (s *Server) cookieMaxAge(token string) int {
	ttl := s.config.GetSessionTTL()
	if exp, ok := backend.TokenExpiry(token); ok {
		untilExp := time.Until(exp)
		if untilExp <= 0 {
			return -1
		}
		ttl = min(ttl, untilExp)
	}
	if ttl <= 0 {
		return 0 // browser-session cookie
	}
	return int(ttl.Seconds())
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withQuery(path, "error", errorMsg))
}

// withQuery appends key=value to path, keeping any query it already has
func withQuery(path, key, value string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
