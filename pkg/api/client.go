package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/security"
)

// tenantPlaceholder is replaced with the tenant ID in configured URLs.
const tenantPlaceholder = "{tenant}"

// Config configures the catalog client.
type Config struct {
	// BaseURL is the consumer API root, e.g.
	// "https://{tenant}.catalog.example.com/consumer/v1".
	BaseURL string

	// PortalURL is the root of human-facing asset links. Optional.
	PortalURL string

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// RateLimit in requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// PageSize is the number of transactions per page (default: 10).
	PageSize int

	// MaxResponseBytes caps a response body (default: 32 MiB).
	MaxResponseBytes int64

	// UserAgent string.
	UserAgent string

	// Retry configures the retry policy.
	Retry RetryPolicy

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// DefaultConfig returns a client config with defaults and no base URL.
func DefaultConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		RateLimit:        10,
		RateBurst:        5,
		PageSize:         10,
		MaxResponseBytes: 32 << 20,
		UserAgent:        "simple-asset-sync/1.0",
		Retry:            DefaultRetryPolicy(),
	}
}

// Recorder receives client metrics.
type Recorder interface {
	Retried(op, reason string)
	TokenRefreshed()
}

type nopRecorder struct{}

func (nopRecorder) Retried(string, string) {}
func (nopRecorder) TokenRefreshed() {}

// Option configures a Client.
type Option interface {
	applyClient(*Client)
}

type optionFunc func(*Client)

func (f optionFunc) applyClient(c *Client) { f(c) }

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Client) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return optionFunc(func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	})
}

// Client fetches generic metadata and asset pages from the catalog.
type Client struct {
	config      *Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	auth        core.AuthRefresher
	settings    core.SettingsProvider
	logger      *slog.Logger
	recorder    Recorder
}

// NewClient creates a catalog client.
func NewClient(config *Config, auth core.AuthRefresher, settings core.SettingsProvider, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		return nil, core.NewConfigurationError("catalog.base_url", errors.New("base URL is required"))
	}
	if auth == nil {
		return nil, errors.New("assetsync: auth refresher is required")
	}
	if settings == nil {
		return nil, errors.New("assetsync: settings provider is required")
	}

	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaults.RateLimit
	}
	if config.RateBurst <= 0 {
		config.RateBurst = defaults.RateBurst
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.MaxResponseBytes <= 0 {
		config.MaxResponseBytes = defaults.MaxResponseBytes
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = defaults.Retry
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		auth:        auth,
		settings:    settings,
		logger:      slog.Default(),
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt.applyClient(c)
	}
	return c, nil
}

// baseURL resolves the tenant placeholder.
func (c *Client) baseURL(tenantID string) string {
	return strings.TrimSuffix(strings.ReplaceAll(c.config.BaseURL, tenantPlaceholder, tenantID), "/")
}

func (c *Client) portalURL(tenantID, projectID, contentElementID string) string {
	if c.config.PortalURL == "" {
		return ""
	}
	root := strings.TrimSuffix(strings.ReplaceAll(c.config.PortalURL, tenantPlaceholder, tenantID), "/")
	return fmt.Sprintf("%s/project/%s/content-element/%s", root, url.PathEscape(projectID), url.PathEscape(contentElementID))
}

// getJSON performs a single authenticated GET and decodes the response.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	// Re-read the token on every attempt in case it was refreshed.
	token, err := c.auth.AccessToken(ctx)
	if err != nil {
		return &core.AuthenticationError{Err: err}
	}
	if token == "" {
		return &core.AuthenticationError{Err: core.ErrMissingAccessToken}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.config.MaxResponseBytes {
		return Permanent(core.ErrResponseTooLarge)
	}

	if resp.StatusCode >= 400 {
		return &core.APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.Path,
			Message:    security.SanitizeErrorMessage(string(bytes.TrimSpace(body))),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
