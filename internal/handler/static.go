package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// StaticHandler serves files from the public asset tree. Anything that is
// not a regular file gets the site's not-found page.
type StaticHandler struct {
	assets   fs.FS
	notFound http.Handler
}

// NewStaticHandler creates a new StaticHandler
func NewStaticHandler(assets fs.FS, notFound http.Handler) *StaticHandler {
	return &StaticHandler{assets: assets, notFound: notFound}
}

// ServeHTTP implements http.Handler
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		h.notFound.ServeHTTP(w, r)
		return
	}

	info, err := fs.Stat(h.assets, name)
	if err != nil || info.IsDir() {
		h.notFound.ServeHTTP(w, r)
		return
	}
	http.ServeFileFS(w, r, h.assets, name)
}
