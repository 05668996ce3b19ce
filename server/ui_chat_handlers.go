package server

import (
	"net/http"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/chat"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/rs/zerolog/log"
)

type ChatPageData struct {
	PageData
	Messages []chat.Message
}

// ChatPageHandler shows the session's conversation (GET /chat)
func (s *Server) ChatPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("chat.html")

	return func(w http.ResponseWriter, r *http.Request) {
		conv := chat.NewConversation(chat.DefaultMaxMessages)
		if id := sessionID(r); id != "" {
			conv = s.chats.Get(id)
		}
		render(w, tmpl, ChatPageData{
			PageData: s.pageData(r, "Counsellor"),
			Messages: conv.Messages(),
		})
	}
}

// ChatSubmissionHandler sends one message to the counsellor with the
// profile as context (POST /chat). Logged-out visitors can chat too; they
// get a session so the conversation survives the redirect.
func (s *Server) ChatSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		id, store, err := s.ensureSession(w, r)
		if err != nil {
			log.Err(err).Msg("Failed to start chat session")
			redirectWithError(w, r, RouteChat, "Chat is unavailable right now")
			return
		}

		token := store.State().Token
		var profile *backend.Profile
		if token != "" {
			if p, err := s.api.FetchProfile(r.Context(), token); err == nil {
				profile = p
			}
		}

		_, err = s.chats.Get(id).Send(r.Context(), s.api, token, profile, r.FormValue("message"))
		switch {
		case errors.Is(err, chat.ErrBusy):
			redirectWithError(w, r, RouteChat, "Please wait for the counsellor to reply")
		default:
			// Empty messages are ignored; failed replies are already in the history
			redirectSuccess(w, r, RouteChat)
		}
	}
}
