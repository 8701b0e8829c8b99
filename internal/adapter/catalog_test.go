package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"utdr-guide/internal/domain"
)

func TestCatalogClient_FetchCatalog_Success(t *testing.T) {
	var got catalogRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write([]byte(`{"code":200,"data":{"videos":[{"game":"undertale","title":"t"}],"notifications":[]},"_source":"backup"}`))
	}))
	defer server.Close()

	client := NewCatalogClient(CatalogClientConfig{
		Endpoint: server.URL,
		AppID:    "app",
		APIKey:   "key",
	})
	client.now = func() time.Time { return time.Unix(1700000000, 0) }

	resp, err := client.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}

	if got.AppID != "app" || got.APIKey != "key" || got.Timestamp != 1700000000 {
		t.Errorf("unexpected request body %+v", got)
	}
	if resp.Source != "backup" {
		t.Errorf("Source = %q, want backup", resp.Source)
	}

	var doc domain.CatalogDocument
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		t.Fatalf("data is not a catalog document: %v", err)
	}
	if len(doc.Videos) != 1 {
		t.Errorf("expected 1 video, got %d", len(doc.Videos))
	}
}

func TestCatalogClient_FetchCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, "bad gateway", domain.ErrUpstreamUnavailable},
		{"not found", http.StatusNotFound, "", domain.ErrUpstreamUnavailable},
		{"rejected code", http.StatusOK, `{"code":401,"msg":"bad signature"}`, domain.ErrUpstreamRejected},
		{"malformed body", http.StatusOK, `<html>`, domain.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewCatalogClient(CatalogClientConfig{Endpoint: server.URL})
			_, err := client.FetchCatalog(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogClient_FetchCatalog_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewCatalogClient(CatalogClientConfig{Endpoint: url, Timeout: time.Second})
	_, err := client.FetchCatalog(context.Background())
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestCatalogClient_ClientCredentials(t *testing.T) {
	tokenRequests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenRequests++
			r.ParseForm()
			if r.Form.Get("grant_type") != "client_credentials" {
				t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
		case "/data.json":
			if auth := r.Header.Get("Authorization"); !strings.EqualFold(auth, "Bearer tok") {
				t.Errorf("Authorization = %q", auth)
			}
			w.Write([]byte(`{"code":200,"data":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewCatalogClient(CatalogClientConfig{
		Endpoint: server.URL + "/data.json",
		AppID:    "app",
		APIKey:   "key",
		TokenURL: server.URL + "/token",
	})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchCatalog(context.Background()); err != nil {
			t.Fatalf("FetchCatalog #%d failed: %v", i, err)
		}
	}
	if tokenRequests != 1 {
		t.Errorf("expected the token to be reused, got %d token requests", tokenRequests)
	}
}
