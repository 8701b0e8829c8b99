package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"utdr-guide/internal/auth"
	"utdr-guide/internal/config"
	"utdr-guide/internal/dialog"
	"utdr-guide/internal/domain"
	"utdr-guide/internal/middleware"
	"utdr-guide/internal/service"
	"utdr-guide/web"
)

const testAdminKey = "test-admin-key"

// stubCatalog is a CatalogService returning a fixed result
type stubCatalog struct {
	result   *domain.LoadResult
	loads    int
	cleared  int
	clearErr error
}

func (s *stubCatalog) Load(ctx context.Context) *domain.LoadResult {
	s.loads++
	return s.result
}

func (s *stubCatalog) Refresh(ctx context.Context) *domain.LoadResult {
	return s.result
}

func (s *stubCatalog) Clear(ctx context.Context) error {
	s.cleared++
	return s.clearErr
}

// stubSource is a CatalogSource returning a fixed response or error
type stubSource struct {
	resp *domain.UpstreamResponse
	err  error
}

func (s *stubSource) FetchCatalog(ctx context.Context) (*domain.UpstreamResponse, error) {
	return s.resp, s.err
}

// memoryDownloads is an in-memory repository.DownloadRepository
type memoryDownloads struct {
	counts map[string]int
	err    error
}

func (m *memoryDownloads) Increment(ctx context.Context, id string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[id]++
	return m.counts[id], nil
}

func (m *memoryDownloads) GetAll(ctx context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.counts, nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// sampleCatalog has one video of every kind the pages care about
func sampleCatalog() *domain.Catalog {
	return &domain.Catalog{
		Videos: []*domain.Video{
			{Game: domain.GameUndertale, Title: "Ruins walkthrough", PublishedAt: "2026-01-01", Status: domain.StatusNormal, Tags: []string{"流程"}, VideoID: "BV1"},
			{Game: domain.GameUndertale, Title: "Sans fight", PublishedAt: "2026-01-02", Status: domain.StatusNormal, Spoiler: true, VideoID: "BV2"},
			{Game: domain.GameDeltarune, Chapter: "1", Title: "Chapter 1", PublishedAt: "2026-01-03", Status: domain.StatusNormal, VideoID: "BV3"},
			{Game: domain.GameDeltarune, Chapter: "2", Title: "Broken entry", PublishedAt: "2026-01-04", Status: domain.StatusAnomalous},
		},
		Notifications: []*domain.Notification{
			{Title: "维护通知", Body: "今晚维护", Type: domain.NotificationWarning},
			{Title: "欢迎", Body: "欢迎访问", Type: domain.NotificationInfo, Date: "2026-01-01"},
		},
		Preview: &domain.UpdatePreview{
			Title:  "第四章攻略",
			Status: domain.PreviewScheduled,
			At:     testNow.Add(26 * time.Hour),
		},
	}
}

// testEnv wires handlers over stubs and the embedded templates
type testEnv struct {
	public    *PublicHandler
	api       *APIHandler
	catalog   *stubCatalog
	source    *stubSource
	downloads *memoryDownloads
	sessions  *auth.SessionManager
	visitors  *middleware.VisitorMiddleware
	dialogs   *dialog.Registry
	cookies   []*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	site := config.DefaultSite()
	site.Resources = []config.ResourceDef{
		{ID: "fonts", Title: "字体包", Category: "工具", URL: "https://example.com/fonts.zip"},
		{ID: "ost", Title: "原声音乐", Category: "音乐", URL: "https://example.com/ost.zip"},
	}

	env := &testEnv{
		catalog: &stubCatalog{result: &domain.LoadResult{
			Catalog: sampleCatalog(),
			Origin:  domain.OriginPrimary,
			Source:  "primary",
		}},
		source:    &stubSource{},
		downloads: &memoryDownloads{counts: map[string]int{}},
		sessions:  auth.NewSessionManager("visitor_id", false, 3600),
		dialogs:   dialog.NewRegistry(time.Hour),
	}
	env.visitors = middleware.NewVisitorMiddleware(env.sessions)

	resources := service.NewResourceService(site.Resources, env.downloads)
	notFound := auth.NewNotFoundPage(web.Static())
	gate := auth.NewAdminGate(testAdminKey, web.Static(), "private/admin.html", notFound)

	env.public = NewPublicHandler(env.catalog, resources, site, env.sessions, env.dialogs, LoadTemplates(web.Templates()), notFound)
	env.public.now = func() time.Time { return testNow }
	env.api = NewAPIHandler(env.catalog, env.source, resources, gate, notFound)

	// Pin one visitor for the whole test
	w := httptest.NewRecorder()
	env.sessions.EnsureVisitor(w, httptest.NewRequest(http.MethodGet, "/", nil))
	env.cookies = w.Result().Cookies()
	return env
}

// serve runs h behind the visitor middleware as the pinned visitor
func (e *testEnv) serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.visitors.Visitor(h)(w, req)
	return w
}

// visitorID returns the pinned visitor's id
func (e *testEnv) visitorID(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	id, err := e.sessions.GetVisitor(req)
	if err != nil {
		t.Fatalf("visitor cookie missing: %v", err)
	}
	return id
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode JSON %q: %v", w.Body.String(), err)
	}
}

var errBoom = errors.New("boom")
