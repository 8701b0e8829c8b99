// Package render turns catalog data into view models and executes the
// page templates.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"utdr-guide/internal/logger"
)

// TemplatePattern is where page templates live inside the web FS
const TemplatePattern = "templates/*.html"

// Renderer executes named templates
type Renderer struct {
	templates *template.Template
	logger    *logger.Logger
}

// NewRenderer parses every template under TemplatePattern in fsys
func NewRenderer(fsys fs.FS, funcs template.FuncMap) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(fsys, TemplatePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: tmpl, logger: logger.GetGlobalLogger()}, nil
}

// NewRendererFromTemplate wraps already parsed templates
func NewRendererFromTemplate(tmpl *template.Template) *Renderer {
	return &Renderer{templates: tmpl, logger: logger.GetGlobalLogger()}
}

// Has reports whether a template is defined
func (r *Renderer) Has(name string) bool {
	return r.templates.Lookup(name) != nil
}

// Render executes name into w. A template that is not defined renders
// nothing: optional widgets may be absent from a page variant.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	if !r.Has(name) {
		r.logger.Debug("Skipping render of undefined template", map[string]interface{}{
			"template": name,
		})
		return nil
	}
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// Page renders a full page with the given status. The page is buffered so a
// template error still produces a clean 500.
func (r *Renderer) Page(w http.ResponseWriter, status int, name string, data interface{}) {
	if !r.Has(name) {
		r.logger.Error("Page template missing", map[string]interface{}{
			"template": name,
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("Failed to render page", map[string]interface{}{
			"template": name,
			"error":    err,
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
