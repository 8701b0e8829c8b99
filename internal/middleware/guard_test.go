package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"utdr-guide/internal/logger"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("missing"))
}

func TestPrivateGuard(t *testing.T) {
	handler := PrivateGuard(http.HandlerFunc(notFoundHandler), http.HandlerFunc(okHandler))

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/private/admin.html", http.StatusNotFound},
		{"/private", http.StatusNotFound},
		{"/privateer", http.StatusNotFound},
		{"/admin-entry", http.StatusOK},
		{"/static/private/x", http.StatusOK},
		{"/", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestProperty_PrivatePathsNeverReachHandler(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("anything under /private is answered by notFound", prop.ForAll(
		func(suffix string) bool {
			reached := false
			handler := PrivateGuard(http.HandlerFunc(notFoundHandler), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private/"+suffix, nil))
			return !reached && w.Code == http.StatusNotFound
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if w.Header().Get("Referrer-Policy") == "" {
		t.Error("Expected Referrer-Policy to be set")
	}
}

func TestCORS(t *testing.T) {
	handlerCalled := false
	handler := CORS(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("preflight", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodOptions, "/api/fetch_data", nil))

		if handlerCalled {
			t.Error("Expected preflight not to reach the handler")
		}
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("Expected empty body, got %q", w.Body.String())
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
			t.Errorf("Access-Control-Allow-Methods = %q", got)
		}
	})

	t.Run("get", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/api/fetch_data", nil))

		if !handlerCalled {
			t.Error("Expected GET to reach the handler")
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("Access-Control-Allow-Headers = %q", got)
		}
	})
}

func TestRateLimiter_Limit(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Limit(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/api/catalog", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected burst of 2 to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", codes[2])
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(logger.LevelDebug, &buf)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	RequestLogger(l, http.HandlerFunc(okHandler)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/content", nil))
	RequestLogger(l, failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/catalog", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"path":"/content"`) || !strings.Contains(lines[0], `"status":200`) {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"WARN"`) || !strings.Contains(lines[1], `"status":500`) {
		t.Errorf("unexpected second line %q", lines[1])
	}
}
