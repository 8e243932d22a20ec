package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// tenantPlaceholder is replaced with the tenant ID in the token URL.
const tenantPlaceholder = "{tenant}"

// expiryDelta refreshes tokens shortly before they expire.
const expiryDelta = time.Minute

// Config configures the OAuth2 token endpoint.
type Config struct {
	ClientID     string
	ClientSecret string

	// TokenURL may contain a {tenant} placeholder.
	TokenURL string
	Scopes   []string
}

// Option configures an OAuth2Refresher.
type Option interface {
	applyRefresher(*OAuth2Refresher)
}

type optionFunc func(*OAuth2Refresher)

func (f optionFunc) applyRefresher(r *OAuth2Refresher) { f(r) }

// WithLogger sets the refresher logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(r *OAuth2Refresher) {
		if l != nil {
			r.logger = l
		}
	})
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return optionFunc(func(r *OAuth2Refresher) {
		r.httpClient = c
	})
}

// OAuth2Refresher keeps the catalog token pair in a TokenStore fresh.
type OAuth2Refresher struct {
	config     Config
	store      core.TokenStore
	settings   core.SettingsProvider
	httpClient *http.Client
	logger     *slog.Logger

	mu sync.Mutex
}

// NewOAuth2Refresher creates a refresher. settings supplies the tenant for
// the token URL and may be nil when the URL has no placeholder.
func NewOAuth2Refresher(config Config, store core.TokenStore, settings core.SettingsProvider, opts ...Option) (*OAuth2Refresher, error) {
	if config.TokenURL == "" {
		return nil, core.NewConfigurationError("auth.token_url", errors.New("token URL is required"))
	}
	if config.ClientID == "" {
		return nil, core.NewConfigurationError("auth.client_id", errors.New("client ID is required"))
	}
	if store == nil {
		return nil, errors.New("assetsync: token store is required")
	}

	r := &OAuth2Refresher{
		config:   config,
		store:    store,
		settings: settings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt.applyRefresher(r)
	}
	return r, nil
}

// RefreshAccessToken exchanges the stored refresh token for a new pair.
// Concurrent callers are serialized.
func (r *OAuth2Refresher) RefreshAccessToken(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.refresh(ctx)
	return err
}

// AccessToken returns the stored access token, refreshing it first when
// it is about to expire.
func (r *OAuth2Refresher) AccessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.store.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if stored == nil || (stored.AccessToken == "" && stored.RefreshToken == "") {
		return "", core.ErrMissingAccessToken
	}
	if stored.AccessToken != "" && (stored.Expiry.IsZero() || time.Until(stored.Expiry) > expiryDelta) {
		return stored.AccessToken, nil
	}

	r.logger.Debug("access token missing or about to expire, refreshing", "expiry", stored.Expiry)
	fresh, err := r.refresh(ctx)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

func (r *OAuth2Refresher) refresh(ctx context.Context) (*core.Token, error) {
	stored, err := r.store.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if stored == nil || stored.RefreshToken == "" {
		return nil, core.ErrMissingRefreshToken
	}

	cfg, err := r.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}

	// An empty access token forces the token source to refresh.
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}

	fresh := &core.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if err := r.store.SetToken(ctx, fresh); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	r.logger.Info("access token refreshed", "expiry", tok.Expiry)
	return fresh, nil
}

func (r *OAuth2Refresher) oauthConfig(ctx context.Context) (*oauth2.Config, error) {
	tokenURL := r.config.TokenURL
	if strings.Contains(tokenURL, tenantPlaceholder) {
		if r.settings == nil {
			return nil, core.NewConfigurationError("tenant_id", core.ErrMissingTenantID)
		}
		s, err := r.settings.Settings(ctx)
		if err != nil {
			return nil, core.NewConfigurationError("settings", err)
		}
		if err := s.ValidateForSync(); err != nil {
			return nil, err
		}
		tokenURL = strings.ReplaceAll(tokenURL, tenantPlaceholder, s.TenantID)
	}

	return &oauth2.Config{
		ClientID:     r.config.ClientID,
		ClientSecret: r.config.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       r.config.Scopes,
	}, nil
}

// StaticToken serves a fixed access token. Refreshing is a no-op.
type StaticToken string

// RefreshAccessToken does nothing.
func (StaticToken) RefreshAccessToken(context.Context) error {
	return nil
}

// AccessToken returns the token.
func (t StaticToken) AccessToken(context.Context) (string, error) {
	if t == "" {
		return "", core.ErrMissingAccessToken
	}
	return string(t), nil
}
