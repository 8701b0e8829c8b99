package handler

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"utdr-guide/internal/auth"
	"utdr-guide/internal/cache"
	"utdr-guide/internal/config"
	"utdr-guide/internal/dialog"
	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"
	"utdr-guide/internal/middleware"
	"utdr-guide/internal/player"
	"utdr-guide/internal/render"
	"utdr-guide/internal/selection"
	"utdr-guide/internal/service"
)

// NoticeRepeat is how long a catalog notice stays acknowledged for a visitor
const NoticeRepeat = cache.EnvelopeTTL

// pageData is shared by every page template
type pageData struct {
	Title         string
	Site          *config.Site
	ActiveNav     string
	Theme         string
	Prefs         auth.Preferences
	Uptime        render.Uptime
	Prompt        *dialog.Prompt
	NoticeDelayMs int64
	ReturnTo      string
}

type homePage struct {
	pageData
	Origin        domain.Origin
	Notifications []render.NotificationCard
	Preview       *render.PreviewWidget
	Recommended   []render.VideoCard
}

type contentPage struct {
	pageData
	Games    []config.GameDef
	Chapters []config.ChapterDef
	State    selection.State
	Layout   *selection.Layout
	Videos   []render.VideoCard
}

type resourcesPage struct {
	pageData
	Category   string
	Categories []string
	Resources  []*domain.Resource
}

type playerPage struct {
	pageData
	VideoTitle string
	Date       string
	Game       string
	Chapter    string
	VideoID    string
}

// PublicHandler handles the site's pages and form posts
type PublicHandler struct {
	catalogService  domain.CatalogService
	resourceService domain.ResourceService
	site            *config.Site
	sessionManager  *auth.SessionManager
	dialogs         *dialog.Registry
	notices         *cache.Cache[string]
	renderer        *render.Renderer
	notFound        http.Handler
	now             func() time.Time
	logger          *logger.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(
	catalogService domain.CatalogService,
	resourceService domain.ResourceService,
	site *config.Site,
	sessionManager *auth.SessionManager,
	dialogs *dialog.Registry,
	renderer *render.Renderer,
	notFound http.Handler,
) *PublicHandler {
	return &PublicHandler{
		catalogService:  catalogService,
		resourceService: resourceService,
		site:            site,
		sessionManager:  sessionManager,
		dialogs:         dialogs,
		notices:         cache.New[string](NoticeRepeat),
		renderer:        renderer,
		notFound:        notFound,
		now:             time.Now,
		logger:          logger.GetGlobalLogger(),
	}
}

// loadCatalog loads the catalog and hands its notice to the visitor's dialog.
// Each distinct notice is shown to a visitor once per NoticeRepeat.
func (h *PublicHandler) loadCatalog(r *http.Request) *domain.LoadResult {
	result := h.catalogService.Load(r.Context())

	visitorID := middleware.GetVisitorID(r.Context())
	if result.Notice == nil || visitorID == "" {
		return result
	}
	if seen, ok := h.notices.Get(visitorID); ok && seen == result.Notice.Message {
		return result
	}

	req := dialog.NewAlert(result.Notice.Message, result.Notice.Title, dialog.DefaultConfirmLabel)
	req.Warning = result.Notice.Blocking
	h.dialogs.For(visitorID).Open(req)
	h.notices.Set(visitorID, result.Notice.Message)

	h.logger.Debug("Catalog notice queued", map[string]interface{}{
		"visitor_id": visitorID,
		"origin":     string(result.Origin),
	})
	return result
}

// basePage fills the data every page template needs
func (h *PublicHandler) basePage(r *http.Request, nav, title string) pageData {
	prefs := middleware.GetPreferences(r.Context())
	data := pageData{
		Title:         title,
		Site:          h.site,
		ActiveNav:     nav,
		Theme:         prefs.Theme,
		Prefs:         prefs,
		Uptime:        render.NewUptime(h.site.StartedAt, h.now()),
		NoticeDelayMs: service.NoticeDelay.Milliseconds(),
		ReturnTo:      r.URL.RequestURI(),
	}
	if visitorID := middleware.GetVisitorID(r.Context()); visitorID != "" {
		if prompt, ok := h.dialogs.For(visitorID).Current(); ok {
			data.Prompt = prompt
		}
	}
	return data
}

// HandleHome displays notices, the update preview and recommended videos
// GET /
func (h *PublicHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	result := h.loadCatalog(r)
	catalog := result.Catalog
	now := h.now()

	rng := rand.New(rand.NewSource(now.UnixNano()))
	data := homePage{
		pageData:      h.basePage(r, "home", "首页"),
		Origin:        result.Origin,
		Notifications: render.NewNotificationCards(catalog.Notifications),
		Preview:       render.NewPreviewWidget(catalog, now),
		Recommended:   render.NewVideoCards(catalog, service.RecommendVideos(catalog.Videos, rng)),
	}
	h.renderer.Page(w, http.StatusOK, "home.html", data)
}

// HandleContent displays the game / chapter pickers and the video grid.
// The selection is restored from the game and chapter query parameters.
// GET /content
func (h *PublicHandler) HandleContent(w http.ResponseWriter, r *http.Request) {
	result := h.loadCatalog(r)
	q := r.URL.Query()

	state, layout := selection.Restore(result.Catalog.Videos, q.Get("game"), q.Get("chapter"),
		selection.WithChapterValidator(h.chapterExists))

	var chapters []config.ChapterDef
	if game, ok := h.site.Game(string(state.Game)); ok {
		chapters = game.Chapters
	}

	data := contentPage{
		pageData: h.basePage(r, "content", "视频攻略"),
		Games:    h.site.Games,
		Chapters: chapters,
		State:    state,
		Layout:   layout,
		Videos:   render.NewVideoCards(result.Catalog, layout.Grid()),
	}
	h.renderer.Page(w, http.StatusOK, "content.html", data)
}

// chapterExists reports whether the site offers chapter for game
func (h *PublicHandler) chapterExists(game domain.Game, chapter string) bool {
	def, ok := h.site.Game(string(game))
	if !ok {
		return false
	}
	for _, c := range def.Chapters {
		if c.ID == chapter {
			return true
		}
	}
	return false
}

// HandleResources lists downloadable resources of a category
// GET /resources?category=
func (h *PublicHandler) HandleResources(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = service.CategoryAll
	}

	resources, err := h.resourceService.ListResources(r.Context(), category)
	if err != nil {
		h.logger.Error("Failed to list resources", map[string]interface{}{
			"category": category,
			"error":    err,
		})
		http.Error(w, "Failed to load resources", http.StatusInternalServerError)
		return
	}

	data := resourcesPage{
		pageData:   h.basePage(r, "download", "资源下载"),
		Category:   category,
		Categories: h.resourceService.Categories(),
		Resources:  resources,
	}
	h.renderer.Page(w, http.StatusOK, "resources.html", data)
}

// HandleDownload counts a download and sends the visitor to the file
// POST /downloads/{id}
func (h *PublicHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	resource, err := h.resourceService.RecordDownload(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.notFound.ServeHTTP(w, r)
			return
		}
		h.logger.Error("Failed to record download", map[string]interface{}{
			"resource_id": r.PathValue("id"),
			"error":       err,
		})
		http.Error(w, "Failed to record download", http.StatusInternalServerError)
		return
	}

	target := resource.URL
	if target == "" {
		target = "/resources"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandlePlayer displays the player for the deep-link parameters
// GET /player.html?title=&date=&game=&chapter=&video_id=
func (h *PublicHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := playerPage{
		pageData:   h.basePage(r, "content", "播放"),
		VideoTitle: q.Get("title"),
		Date:       q.Get("date"),
		Game:       q.Get("game"),
		Chapter:    q.Get("chapter"),
		VideoID:    q.Get("video_id"),
	}
	if data.VideoTitle != "" {
		data.Title = data.VideoTitle
	}
	h.renderer.Page(w, http.StatusOK, "player.html", data)
}

// HandleWatch runs player navigation for the n-th catalog video.
// Playable videos redirect to the player; blocked and spoiler videos open
// a prompt and send the visitor back to the page they came from.
// GET /watch?n=&via=
func (h *PublicHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	result := h.catalogService.Load(r.Context())
	videos := result.Catalog.Videos

	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n < 0 || n >= len(videos) {
		h.notFound.ServeHTTP(w, r)
		return
	}

	step := player.Plan(videos[n], player.ParseVia(r.URL.Query().Get("via")))
	if step.Action == player.Navigate {
		http.Redirect(w, r, "/"+step.URL, http.StatusSeeOther)
		return
	}

	if visitorID := middleware.GetVisitorID(r.Context()); visitorID != "" {
		h.dialogs.For(visitorID).Open(step.Prompt)
	}
	http.Redirect(w, r, h.referrer(r, "/content"), http.StatusSeeOther)
}

// HandleDialog resolves the visitor's open prompt
// POST /dialog/{id}
func (h *PublicHandler) HandleDialog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	dismissal, err := dialog.ParseDismissal(r.FormValue("dismissal"))
	if err != nil {
		http.Error(w, "Invalid dismissal", http.StatusBadRequest)
		return
	}

	back := localPath(r.FormValue("return_to"), "/")
	visitorID := middleware.GetVisitorID(r.Context())

	prompt, outcome, err := h.dialogs.For(visitorID).Dismiss(r.PathValue("id"), dismissal)
	if err != nil {
		// Already answered in another tab or superseded
		h.logger.Debug("Ignoring dismissal", map[string]interface{}{
			"prompt_id": r.PathValue("id"),
			"error":     err,
		})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if outcome == dialog.Accepted && prompt.Request.AcceptTarget != "" {
		http.Redirect(w, r, "/"+prompt.Request.AcceptTarget, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandlePreferences updates theme and music settings
// POST /preferences
func (h *PublicHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	prefs := h.sessionManager.GetPreferences(r)
	switch r.FormValue("action") {
	case "toggle_theme":
		prefs = prefs.ToggledTheme()
	case "toggle_music":
		prefs.MusicEnabled = !prefs.MusicEnabled
	case "set_music":
		volume, err := strconv.ParseFloat(r.FormValue("music_volume"), 64)
		if err != nil {
			http.Error(w, "Invalid music volume", http.StatusBadRequest)
			return
		}
		prefs.MusicVolume = volume
		if theme := r.FormValue("music_theme"); theme != "" {
			prefs.MusicTheme = theme
		}
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	if err := h.sessionManager.SetPreferences(w, prefs); err != nil {
		http.Error(w, "Invalid preferences", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, localPath(r.FormValue("return_to"), "/"), http.StatusSeeOther)
}

// referrer returns the same-site page the request came from
func (h *PublicHandler) referrer(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host {
		return fallback
	}
	return localPath(ref.RequestURI(), fallback)
}

// localPath returns target when it is a path on this site, else fallback
func localPath(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

// SweepNotices forgets acknowledged notices of idle visitors
func (h *PublicHandler) SweepNotices() int {
	return h.notices.Cleanup()
}
