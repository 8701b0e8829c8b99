package handler

import (
	"html/template"
	"io/fs"
	"strings"

	"utdr-guide/internal/logger"
	"utdr-guide/internal/render"
)

// TemplateFuncs returns the custom template functions used across all templates
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// join concatenates tags for data attributes
		"join": func(items []string, sep string) string {
			return strings.Join(items, sep)
		},
	}
}

// LoadTemplates parses all page templates from fsys with custom functions.
// A broken template tree yields an empty renderer so pages answer 500
// instead of the server refusing to start.
func LoadTemplates(fsys fs.FS) *render.Renderer {
	renderer, err := render.NewRenderer(fsys, TemplateFuncs())
	if err != nil {
		logger.Warn("Failed to load templates", map[string]interface{}{
			"error": err,
		})
		return render.NewRendererFromTemplate(template.New("empty").Funcs(TemplateFuncs()))
	}
	return renderer
}
