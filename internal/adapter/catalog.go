package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"utdr-guide/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// maxCatalogBody caps how much of an upstream response is read
const maxCatalogBody = 8 << 20

// CatalogClientConfig configures a CatalogClient
type CatalogClientConfig struct {
	Endpoint string
	AppID    string
	APIKey   string
	// TokenURL enables the OAuth2 client-credentials flow, using AppID/APIKey
	// as client id and secret. Empty means plain requests.
	TokenURL string
	Timeout  time.Duration
}

// CatalogClient implements domain.CatalogSource against a catalog aggregation API
type CatalogClient struct {
	endpoint   string
	appID      string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// catalogRequest is the signed request body the aggregation API expects
type catalogRequest struct {
	AppID     string `json:"a1"`
	APIKey    string `json:"a2"`
	Timestamp int64  `json:"t1"`
}

// NewCatalogClient creates a new catalog API client
func NewCatalogClient(cfg CatalogClientConfig) *CatalogClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := &http.Client{Timeout: timeout}

	client := base
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.APIKey,
			TokenURL:     cfg.TokenURL,
		}
		// Token requests reuse the same timeout-bound transport
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = cc.Client(tokenCtx)
		client.Timeout = timeout
	}

	return &CatalogClient{
		endpoint:   cfg.Endpoint,
		appID:      cfg.AppID,
		apiKey:     cfg.APIKey,
		httpClient: client,
		now:        time.Now,
	}
}

// FetchCatalog posts a signed request and returns the decoded response.
// Transport failures and non-2xx statuses wrap domain.ErrUpstreamUnavailable,
// an undecodable body wraps domain.ErrMalformedPayload and a body whose code
// is not 200 wraps domain.ErrUpstreamRejected.
func (c *CatalogClient) FetchCatalog(ctx context.Context) (*domain.UpstreamResponse, error) {
	body, err := json.Marshal(catalogRequest{
		AppID:     c.appID,
		APIKey:    c.apiKey,
		Timestamp: c.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(snippet))
	}

	var result domain.UpstreamResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBody)).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	if result.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: code %d: %s", domain.ErrUpstreamRejected, result.Code, result.Message)
	}

	return &result, nil
}
