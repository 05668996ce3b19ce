package server

import (
	"net/http"
)

// IndexHandler renders the landing page
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, s.pageData(r, ""))
	}
}
