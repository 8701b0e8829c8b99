package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utdr-guide/internal/auth"
	"utdr-guide/web"
)

func TestStaticHandler(t *testing.T) {
	assets := fstest.MapFS{
		"404.html":         {Data: []byte("<p>missing</p>")},
		"css/style.css":    {Data: []byte("body{}")},
		"data/videos.json": {Data: []byte(`{"videos":[]}`)},
	}
	h := NewStaticHandler(assets, auth.NewNotFoundPage(assets))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/css/style.css", http.StatusOK, "body{}"},
		{"/data/videos.json", http.StatusOK, `{"videos":[]}`},
		{"/css", http.StatusNotFound, "<p>missing</p>"},
		{"/nope.html", http.StatusNotFound, "<p>missing</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestStaticHandler_DialogScriptWaitsForOverlay(t *testing.T) {
	assets := web.Static()
	h := NewStaticHandler(assets, auth.NewNotFoundPage(assets))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/js/site.js", nil))
	require.Equal(t, http.StatusOK, w.Code)
	script := w.Body.String()

	// Dismissals are ignored until the delayed overlay is displayed
	guard := strings.Index(script, "if (!shown) { return; }")
	escape := strings.Index(script, "dismiss('escape')")
	require.NotEqual(t, -1, guard)
	require.NotEqual(t, -1, escape)
	assert.Less(t, guard, escape)

	reveal := strings.Index(script, "overlay.style.display = '';")
	require.NotEqual(t, -1, reveal)
	assert.Contains(t, script[reveal:], "shown = true;")
}
