package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	layoutTemplate  = "layout.html"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
	"add":   func(a, b int) int { return a + b },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}

// ParseTemplate parses a page template together with the shared layout from
// the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// mustParseTemplate is ParseTemplate for handler constructors; templates are
// embedded, so a parse failure is a build defect.
func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

// PageData is shared by every page rendered in the layout
type PageData struct {
	AppName  string
	Title    string
	LoggedIn bool
	Error    string
	Notice   string
}

func (s *Server) pageData(r *http.Request, title string) PageData {
	return PageData{
		AppName:  s.config.GetAppName(),
		Title:    title,
		LoggedIn: currentStore(r).State().IsLoggedIn,
		Error:    r.URL.Query().Get("error"),
		Notice:   r.URL.Query().Get("notice"),
	}
}

// render executes tmpl into a buffer first so a template error never leaves a
// half-written page behind
func render(w http.ResponseWriter, tmpl *template.Template, data any) {
	renderStatus(w, http.StatusOK, tmpl, data)
}

func renderStatus(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
