package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySessionID stores the browser session id resolved from the cookie
const ContextKeySessionID ContextKey = "session_id"

// anonymousKey names the throwaway store used for requests without a session
const anonymousKey = "anonymous"

// SessionMiddleware resolves the session cookie to its store and puts both in
// the request context. Requests without a valid cookie get a fresh logged-out
// store that is never persisted; a cookie is only issued once there is
// something to keep (see ensureSession).
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, store := s.lookupSession(r)
		if sessionID != "" {
			ctx = context.WithValue(ctx, ContextKeySessionID, sessionID)
		}
		ctx = sessions.NewContext(ctx, store)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) lookupSession(r *http.Request) (string, *sessions.Store) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", sessions.NewStore(anonymousKey, nil)
	}
	store, err := s.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring unusable session cookie")
		return "", sessions.NewStore(anonymousKey, nil)
	}
	return cookie.Value, store
}

// sessionID returns the id resolved by SessionMiddleware, or "" for anonymous requests
func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(ContextKeySessionID).(string)
	return id
}

// currentStore returns the store placed in the context by SessionMiddleware
func currentStore(r *http.Request) *sessions.Store {
	if store, ok := sessions.FromContext(r.Context()); ok {
		return store
	}
	return sessions.NewStore(anonymousKey, nil)
}

// ensureSession returns the request's session, starting a new one and issuing
// its cookie when the request has none.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, *sessions.Store, error) {
	if id := sessionID(r); id != "" {
		return id, currentStore(r), nil
	}
	return s.startSession(w, r, "")
}

// startSession issues a new session id and cookie. token, when set, bounds the
// cookie lifetime.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, token string) (string, *sessions.Store, error) {
	id := s.sessions.NewSessionID()
	store, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return "", nil, err
	}
	s.SetSessionCookie(w, id, r, s.cookieMaxAge(token))
	return id, store, nil
}

// endSession drops every piece of per-session state held by the server
func (s *Server) endSession(sessionID string) {
	if sessionID == "" {
		return
	}
	s.boards.Forget(sessionID)
	s.chats.Forget(sessionID)
	s.sessions.Forget(sessionID)
}
