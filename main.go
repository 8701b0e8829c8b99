package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"utdr-guide/internal/adapter"
	"utdr-guide/internal/auth"
	"utdr-guide/internal/cache"
	"utdr-guide/internal/config"
	"utdr-guide/internal/dialog"
	"utdr-guide/internal/handler"
	"utdr-guide/internal/logger"
	"utdr-guide/internal/middleware"
	"utdr-guide/internal/repository/sqlite"
	"utdr-guide/internal/service"
	"utdr-guide/internal/task"
	"utdr-guide/web"

	"github.com/joho/godotenv"
)

// dialogIdle is how long a visitor's pending prompt is kept without activity
const dialogIdle = 30 * time.Minute

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	logger.SetGlobalLogger(log)
	defer log.Sync()

	// Log configuration (excluding secrets)
	cfg.LogConfiguration(log)

	site, err := config.LoadSite(cfg.SiteFile)
	if err != nil {
		fatal(log, "Failed to load site definition", err)
	}

	// Initialize SQLite database with WAL mode
	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		fatal(log, "Failed to initialize database", err)
	}
	defer db.Close()

	// Run database migrations to ensure schema is up to date
	if err := sqlite.Migrate(db.DB); err != nil {
		fatal(log, "Failed to run migrations", err)
	}

	// Initialize data access layer (repositories)
	kvRepo := sqlite.NewKVRepository(db)
	downloadRepo := sqlite.NewDownloadRepository(db)

	// Upstream catalog API
	catalogClient := adapter.NewCatalogClient(adapter.CatalogClientConfig{
		Endpoint: cfg.CatalogEndpoint,
		AppID:    cfg.AppID,
		APIKey:   cfg.APIKey,
		TokenURL: cfg.UpstreamTokenURL,
		Timeout:  cfg.UpstreamTimeout,
	})

	// Initialize business logic layer (services)
	assets := web.Static()
	envelopeStore := cache.NewEnvelopeStore(kvRepo, cfg.Location())
	catalogService := service.NewCatalogService(catalogClient, envelopeStore, assets, cfg.Location())
	resourceService := service.NewResourceService(site.Resources, downloadRepo)

	// Visitors, prompts and the gated entry
	sessionManager := auth.NewSessionManager("visitor_id", cfg.CookieSecure, cfg.SessionDuration)
	visitors := middleware.NewVisitorMiddleware(sessionManager)
	dialogs := dialog.NewRegistry(dialogIdle)
	notFound := auth.NewNotFoundPage(assets)
	adminGate := auth.NewAdminGate(cfg.AdminSecretKey, assets, cfg.AdminDocumentPath, notFound)

	// Initialize handlers
	publicHandler := handler.NewPublicHandler(
		catalogService,
		resourceService,
		site,
		sessionManager,
		dialogs,
		handler.LoadTemplates(web.Templates()),
		notFound,
	)
	apiHandler := handler.NewAPIHandler(catalogService, catalogClient, resourceService, adminGate, notFound)
	limiter := middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst)

	// Set up HTTP routing
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", visitors.Visitor(publicHandler.HandleHome))
	mux.HandleFunc("GET /content", visitors.Visitor(publicHandler.HandleContent))
	mux.HandleFunc("GET /resources", visitors.Visitor(publicHandler.HandleResources))
	mux.HandleFunc("GET /player.html", visitors.Visitor(publicHandler.HandlePlayer))
	mux.HandleFunc("GET /watch", visitors.Visitor(publicHandler.HandleWatch))
	mux.HandleFunc("POST /downloads/{id}", visitors.Visitor(publicHandler.HandleDownload))
	mux.HandleFunc("POST /dialog/{id}", visitors.Visitor(publicHandler.HandleDialog))
	mux.HandleFunc("POST /preferences", visitors.Visitor(publicHandler.HandlePreferences))

	// Gated admin entry
	mux.Handle("GET /admin-entry", adminGate)

	// API routes (JSON responses)
	mux.HandleFunc("POST /api/catalog", limiter.Limit(apiHandler.HandleCatalog))
	mux.HandleFunc("GET /api/fetch_data", middleware.CORS(limiter.Limit(apiHandler.HandleFetchData)))
	mux.HandleFunc("OPTIONS /api/fetch_data", middleware.CORS(apiHandler.HandleFetchData))
	mux.HandleFunc("POST /api/cache/clear", limiter.Limit(apiHandler.HandleClearCache))
	mux.HandleFunc("POST /api/downloads/{id}", limiter.Limit(apiHandler.HandleDownload))
	mux.HandleFunc("GET /healthz", apiHandler.HandleHealth)

	// Static files for CSS, JavaScript, the 404 page and the bundled catalog
	mux.Handle("GET /", handler.NewStaticHandler(assets, notFound))

	var root http.Handler = mux
	root = middleware.PrivateGuard(notFound, root)
	root = middleware.SecurityHeaders(root)
	root = middleware.RequestLogger(log, root)

	// Background catalog warm-up and visitor state sweeping
	warmer := task.NewCatalogWarmer(catalogService, cfg.WarmSchedule, dialogs.Sweep, publicHandler.SweepNotices)
	if err := warmer.Start(context.Background()); err != nil {
		fatal(log, "Failed to start catalog warmer", err)
	}

	// Configure HTTP server with timeouts to prevent resource exhaustion
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      root,
		ReadTimeout:  15 * time.Second, // Max time to read request
		WriteTimeout: 15 * time.Second, // Max time to write response
		IdleTimeout:  60 * time.Second, // Max time for keep-alive connections
	}

	// Start server in background goroutine
	go func() {
		log.Info("Starting server", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "Server failed to start", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)
	warmer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Gracefully shutdown server with 30-second timeout
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", map[string]interface{}{"error": err})
	}

	log.Info("Server exited", nil)
}

// fatal logs err and exits
func fatal(l *logger.Logger, msg string, err error) {
	l.Error(msg, map[string]interface{}{"error": err})
	l.Sync()
	os.Exit(1)
}
