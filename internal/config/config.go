package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // SITE_TIMEZONE must resolve on hosts without zoneinfo

	"utdr-guide/internal/logger"
)

// DefaultCatalogEndpoint is the upstream video-listing API
const DefaultCatalogEndpoint = "https://open.datadex.com.cn/dexserver/dex-api/v1/data.json"

// Config holds all application configuration loaded from environment variables
type Config struct {
	// Database configuration
	DatabasePath string

	// Upstream catalog API
	CatalogEndpoint  string
	AppID            string
	APIKey           string
	UpstreamTokenURL string // Optional OAuth2 client-credentials token endpoint
	UpstreamTimeout  time.Duration

	// Catalog refresh
	WarmSchedule string // cron spec; empty disables the warm-up job

	// Gated admin entry
	AdminSecretKey    string
	AdminDocumentPath string

	// Server configuration
	ServerPort      string
	LogLevel        string
	SiteFile        string
	Timezone        string
	CookieSecure    bool
	SessionDuration int
	APIRateLimit    float64 // requests per second across /api
	APIRateBurst    int
}

// Load reads configuration from environment variables and returns a Config instance
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: getEnvOrDefault("DATABASE_PATH", "./data/utdr-guide.db"),

		CatalogEndpoint:  getEnvOrDefault("CATALOG_ENDPOINT", DefaultCatalogEndpoint),
		AppID:            os.Getenv("APP_ID"),
		APIKey:           os.Getenv("API_KEY"),
		UpstreamTokenURL: os.Getenv("UPSTREAM_TOKEN_URL"),

		WarmSchedule: getEnvOrDefault("CATALOG_WARM_SCHEDULE", "@every 10m"),

		AdminSecretKey:    os.Getenv("ADMIN_SECRET_KEY"),
		AdminDocumentPath: getEnvOrDefault("ADMIN_DOCUMENT_PATH", "private/admin.html"),

		ServerPort: getEnvOrDefault("SERVER_PORT", "8080"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		SiteFile:   getEnvOrDefault("SITE_FILE", "site.yaml"),
		Timezone:   getEnvOrDefault("SITE_TIMEZONE", "Asia/Shanghai"),
	}

	timeoutSeconds, err := strconv.Atoi(getEnvOrDefault("UPSTREAM_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT format: %w", err)
	}
	cfg.UpstreamTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.CookieSecure, err = strconv.ParseBool(getEnvOrDefault("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE format: %w", err)
	}

	// Parse session duration with default
	sessionDuration, err := strconv.Atoi(getEnvOrDefault("SESSION_DURATION", "31536000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_DURATION format: %w", err)
	}
	cfg.SessionDuration = sessionDuration

	cfg.APIRateLimit, err = strconv.ParseFloat(getEnvOrDefault("API_RATE_LIMIT", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT format: %w", err)
	}
	cfg.APIRateBurst, err = strconv.Atoi(getEnvOrDefault("API_RATE_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_BURST format: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration values are present and valid
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}

	if c.CatalogEndpoint == "" {
		return fmt.Errorf("CATALOG_ENDPOINT cannot be empty")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}

	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %d", c.SessionDuration)
	}

	if c.APIRateLimit <= 0 {
		return fmt.Errorf("API_RATE_LIMIT must be positive, got %v", c.APIRateLimit)
	}

	if c.APIRateBurst <= 0 {
		return fmt.Errorf("API_RATE_BURST must be positive, got %d", c.APIRateBurst)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid SITE_TIMEZONE %q: %w", c.Timezone, err)
	}

	return nil
}

// Location returns the site's time zone, used for zone-less preview timestamps
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogConfiguration logs all loaded configuration values, excluding secrets
func (c *Config) LogConfiguration(l *logger.Logger) {
	l.Info("application configuration", map[string]interface{}{
		"database_path":    c.DatabasePath,
		"catalog_endpoint": c.CatalogEndpoint,
		"app_id":           maskSecret(c.AppID),
		"api_key":          maskSecret(c.APIKey),
		"upstream_timeout": c.UpstreamTimeout.String(),
		"warm_schedule":    c.WarmSchedule,
		"admin_secret_key": maskSecret(c.AdminSecretKey),
		"server_port":      c.ServerPort,
		"site_file":        c.SiteFile,
		"timezone":         c.Timezone,
		"api_rate_limit":   c.APIRateLimit,
		"api_rate_burst":   c.APIRateBurst,
	})

	// Log warnings for missing optional values
	if c.AppID == "" || c.APIKey == "" {
		l.Warn("APP_ID or API_KEY not set - upstream catalog requests will likely be rejected", nil)
	}
	if c.AdminSecretKey == "" {
		l.Warn("ADMIN_SECRET_KEY not set - the admin entry will reject every key", nil)
	}
	if c.WarmSchedule == "" {
		l.Warn("CATALOG_WARM_SCHEDULE empty - catalog is only fetched on demand", nil)
	}
}

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// maskSecret masks a secret string for logging, showing only first 4 characters
func maskSecret(secret string) string {
	if secret == "" {
		return "[not set]"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
