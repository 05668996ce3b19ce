package server

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed static/*
var staticFiles embed.FS

// assets is the embedded static directory with the "static/" prefix removed
var assets = mustSub(staticFiles, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("static assets: " + err.Error())
	}
	return sub
}

// assetContentType picks the Content-Type from the file extension, sniffing
// the bytes when the extension is unknown. Text types are marked UTF-8.
func assetContentType(name string, data []byte) string {
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(ctype, "charset=") {
		ctype += "; charset=utf-8"
	}
	return ctype
}

// AssetHandler serves embedded files from dir, named by the {file} path value
// (GET /css/{file}, GET /js/{file})
func AssetHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Join(dir, r.PathValue("file"))
		data, err := fs.ReadFile(assets, name)
		if err != nil {
			log.Debug().Err(err).Str("asset", name).Msg("Static asset not found")
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", assetContentType(name, data))
		if _, err := w.Write(data); err != nil {
			log.Err(err).Str("asset", name).Msg("Failed to write static asset")
		}
	}
}
