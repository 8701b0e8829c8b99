package auth

import (
	"io/fs"
	"net/http"

	"utdr-guide/internal/logger"
)

const (
	// AccessKeyParam is the query parameter carrying the admin key
	AccessKeyParam = "access_key"

	// NotFoundDocument is the site's generic not-found page inside the assets FS
	NotFoundDocument = "404.html"
)

// SecureCompare reports whether provided equals secret.
// Keys of different length never match. For equal lengths every byte is
// visited and differences are XOR-accumulated, so the running time does not
// depend on where the first mismatch is.
func SecureCompare(provided, secret string) bool {
	a := []byte(provided)
	b := []byte(secret)
	if len(a) != len(b) {
		return false
	}

	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// NotFoundPage serves the site's not-found page with status 404.
// It is used for unknown routes as well as for anything that must look
// like it does not exist.
type NotFoundPage struct {
	assets fs.FS
	logger *logger.Logger
}

// NewNotFoundPage creates a NotFoundPage reading NotFoundDocument from assets
func NewNotFoundPage(assets fs.FS) *NotFoundPage {
	return &NotFoundPage{assets: assets, logger: logger.GetGlobalLogger()}
}

// ServeHTTP implements http.Handler
func (p *NotFoundPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := fs.ReadFile(p.assets, NotFoundDocument)
	if err != nil {
		p.logger.Warn("Not-found page unavailable, using plain text", map[string]interface{}{
			"error": err,
		})
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("404 Not Found"))
		return
	}

	w.Header().Set("Content-Type", "text/html;charset=UTF-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(body)
}

// AdminGate serves the hidden admin document to callers holding the key.
// Anyone else gets the ordinary not-found page.
type AdminGate struct {
	secret       string
	assets       fs.FS
	documentPath string
	notFound     http.Handler
	logger       *logger.Logger
}

// NewAdminGate creates an AdminGate. documentPath is relative to assets.
func NewAdminGate(secret string, assets fs.FS, documentPath string, notFound http.Handler) *AdminGate {
	return &AdminGate{
		secret:       secret,
		assets:       assets,
		documentPath: documentPath,
		notFound:     notFound,
		logger:       logger.GetGlobalLogger(),
	}
}

// Allow reports whether key opens the gate. An unset secret opens nothing.
func (g *AdminGate) Allow(key string) bool {
	if key == "" || g.secret == "" {
		return false
	}
	return SecureCompare(key, g.secret)
}

// ServeHTTP implements http.Handler
// GET /admin-entry?access_key=
func (g *AdminGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.Allow(r.URL.Query().Get(AccessKeyParam)) {
		g.notFound.ServeHTTP(w, r)
		return
	}

	body, err := fs.ReadFile(g.assets, g.documentPath)
	if err != nil {
		g.logger.Error("Failed to read admin document", map[string]interface{}{
			"path":  g.documentPath,
			"error": err,
		})
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 Internal Server Error"))
		return
	}

	g.logger.Info("Admin entry granted", map[string]interface{}{
		"remote_addr": r.RemoteAddr,
	})

	h := w.Header()
	h.Set("Content-Type", "text/html;charset=UTF-8")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
