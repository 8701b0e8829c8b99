package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"DATABASE_PATH",
	"CATALOG_ENDPOINT",
	"APP_ID",
	"API_KEY",
	"UPSTREAM_TOKEN_URL",
	"UPSTREAM_TIMEOUT",
	"CATALOG_WARM_SCHEDULE",
	"ADMIN_SECRET_KEY",
	"ADMIN_DOCUMENT_PATH",
	"SERVER_PORT",
	"LOG_LEVEL",
	"SITE_FILE",
	"SITE_TIMEZONE",
	"COOKIE_SECURE",
	"SESSION_DURATION",
	"API_RATE_LIMIT",
	"API_RATE_BURST",
}

func clearEnv() {
	for _, key := range configEnvKeys {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed with empty environment: %v", err)
	}

	if cfg.DatabasePath != "./data/utdr-guide.db" {
		t.Errorf("DatabasePath = %s, want ./data/utdr-guide.db", cfg.DatabasePath)
	}
	if cfg.CatalogEndpoint != DefaultCatalogEndpoint {
		t.Errorf("CatalogEndpoint = %s, want default", cfg.CatalogEndpoint)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %s, want 8080", cfg.ServerPort)
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Errorf("UpstreamTimeout = %s, want 10s", cfg.UpstreamTimeout)
	}
	if cfg.WarmSchedule != "@every 10m" {
		t.Errorf("WarmSchedule = %s, want @every 10m", cfg.WarmSchedule)
	}
	if cfg.AdminDocumentPath != "private/admin.html" {
		t.Errorf("AdminDocumentPath = %s, want private/admin.html", cfg.AdminDocumentPath)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false")
	}
	if cfg.Location().String() != "Asia/Shanghai" {
		t.Errorf("Location = %s, want Asia/Shanghai", cfg.Location())
	}
}

func TestLoad_ValidConfiguration(t *testing.T) {
	clearEnv()
	os.Setenv("DATABASE_PATH", "./test.db")
	os.Setenv("CATALOG_ENDPOINT", "http://localhost:9999/data.json")
	os.Setenv("APP_ID", "test-app")
	os.Setenv("API_KEY", "test-key")
	os.Setenv("UPSTREAM_TIMEOUT", "3")
	os.Setenv("ADMIN_SECRET_KEY", "s3cret")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("COOKIE_SECURE", "true")
	os.Setenv("SESSION_DURATION", "3600")
	os.Setenv("API_RATE_LIMIT", "2.5")
	os.Setenv("API_RATE_BURST", "4")
	os.Setenv("SITE_TIMEZONE", "UTC")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed with valid config: %v", err)
	}

	if cfg.CatalogEndpoint != "http://localhost:9999/data.json" {
		t.Errorf("CatalogEndpoint = %s", cfg.CatalogEndpoint)
	}
	if cfg.AppID != "test-app" || cfg.APIKey != "test-key" {
		t.Errorf("AppID/APIKey = %s/%s", cfg.AppID, cfg.APIKey)
	}
	if cfg.UpstreamTimeout != 3*time.Second {
		t.Errorf("UpstreamTimeout = %s, want 3s", cfg.UpstreamTimeout)
	}
	if cfg.AdminSecretKey != "s3cret" {
		t.Errorf("AdminSecretKey = %s, want s3cret", cfg.AdminSecretKey)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %s, want 9090", cfg.ServerPort)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure = false, want true")
	}
	if cfg.SessionDuration != 3600 {
		t.Errorf("SessionDuration = %d, want 3600", cfg.SessionDuration)
	}
	if cfg.APIRateLimit != 2.5 || cfg.APIRateBurst != 4 {
		t.Errorf("rate = %v/%d, want 2.5/4", cfg.APIRateLimit, cfg.APIRateBurst)
	}
}

// TestConfigurationErrorMessages tests that configuration errors have clear messages
func TestConfigurationErrorMessages(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		shouldContain []string
	}{
		{
			name:          "invalid SESSION_DURATION",
			env:           map[string]string{"SESSION_DURATION": "not-a-number"},
			shouldContain: []string{"SESSION_DURATION", "invalid"},
		},
		{
			name:          "negative SESSION_DURATION",
			env:           map[string]string{"SESSION_DURATION": "-100"},
			shouldContain: []string{"SESSION_DURATION", "positive"},
		},
		{
			name:          "invalid UPSTREAM_TIMEOUT",
			env:           map[string]string{"UPSTREAM_TIMEOUT": "soon"},
			shouldContain: []string{"UPSTREAM_TIMEOUT", "invalid"},
		},
		{
			name:          "zero UPSTREAM_TIMEOUT",
			env:           map[string]string{"UPSTREAM_TIMEOUT": "0"},
			shouldContain: []string{"UPSTREAM_TIMEOUT", "positive"},
		},
		{
			name:          "invalid COOKIE_SECURE",
			env:           map[string]string{"COOKIE_SECURE": "maybe"},
			shouldContain: []string{"COOKIE_SECURE", "invalid"},
		},
		{
			name:          "invalid API_RATE_LIMIT",
			env:           map[string]string{"API_RATE_LIMIT": "fast"},
			shouldContain: []string{"API_RATE_LIMIT", "invalid"},
		},
		{
			name:          "unknown SITE_TIMEZONE",
			env:           map[string]string{"SITE_TIMEZONE": "Mars/Olympus"},
			shouldContain: []string{"SITE_TIMEZONE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			defer clearEnv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			for _, keyword := range tt.shouldContain {
				if !strings.Contains(err.Error(), keyword) {
					t.Errorf("Expected error message to contain %q, got: %s", keyword, err)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabasePath:    "./test.db",
			CatalogEndpoint: "http://example.com",
			ServerPort:      "8080",
			UpstreamTimeout: time.Second,
			SessionDuration: 60,
			APIRateLimit:    1,
			APIRateBurst:    1,
			Timezone:        "UTC",
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"DATABASE_PATH":    func(c *Config) { c.DatabasePath = "" },
		"CATALOG_ENDPOINT": func(c *Config) { c.CatalogEndpoint = "" },
		"SERVER_PORT":      func(c *Config) { c.ServerPort = "" },
		"API_RATE_BURST":   func(c *Config) { c.APIRateBurst = 0 },
	}
	for keyword, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), keyword) {
			t.Errorf("Validate() = %v, want error mentioning %s", err, keyword)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":           "[not set]",
		"abc":        "****",
		"abcdefgh12": "abcd****",
	}
	for in, want := range cases {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
