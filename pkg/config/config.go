// Package config loads process configuration for the connector.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, and ASSETSYNC_* environment variables (nested keys joined with
// underscores, e.g. ASSETSYNC_SYNC_SCHEDULE).
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jdziat/simple-asset-sync/pkg/api"
	"github.com/jdziat/simple-asset-sync/pkg/auth"
	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/schedule"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASSETSYNC"

// Config is the root configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Target   TargetConfig   `mapstructure:"target"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// CatalogConfig configures the catalog client.
type CatalogConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	PortalURL      string        `mapstructure:"portal_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	PageSize       int           `mapstructure:"page_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

// AuthConfig selects how catalog access tokens are obtained. A non-empty
// AccessToken is used as-is; otherwise tokens are refreshed over OAuth2.
type AuthConfig struct {
	AccessToken  string   `mapstructure:"access_token"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	TokenURL     string   `mapstructure:"token_url"`
	Scopes       []string `mapstructure:"scopes"`

	// RefreshToken seeds the token store when it holds no token yet.
	RefreshToken string `mapstructure:"refresh_token"`
}

// DatabaseConfig selects the storage database.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// SyncConfig configures the pipeline and its triggers.
type SyncConfig struct {
	Schedule          string        `mapstructure:"schedule"`
	RunOnStart        bool          `mapstructure:"run_on_start"`
	TempDir           string        `mapstructure:"temp_dir"`
	LookupConcurrency int           `mapstructure:"lookup_concurrency"`
	CursorFile        string        `mapstructure:"cursor_file"`
	RunRetention      time.Duration `mapstructure:"run_retention"`

	// Connector settings seeded into storage on startup when set.
	TenantID        string   `mapstructure:"tenant_id"`
	ImportLanguages []string `mapstructure:"import_languages"`
	ChannelID       string   `mapstructure:"channel_id"`
}

// TargetConfig configures the reference database target.
type TargetConfig struct {
	Capabilities []string `mapstructure:"capabilities"`
	Downloads    bool     `mapstructure:"downloads"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	PushSecret string `mapstructure:"push_secret"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	client := api.DefaultConfig()
	return &Config{
		Catalog: CatalogConfig{
			Timeout:        client.Timeout,
			RateLimit:      client.RateLimit,
			RateBurst:      client.RateBurst,
			PageSize:       client.PageSize,
			MaxAttempts:    client.Retry.MaxAttempts,
			RetryBaseDelay: client.Retry.BaseDelay,
		},
		Database: DatabaseConfig{
			Driver: storage.DriverSQLite,
			DSN:    "assetsync.db",
		},
		Sync: SyncConfig{
			Schedule:     schedule.DefaultInterval.String(),
			RunRetention: 30 * 24 * time.Hour,
		},
		Target: TargetConfig{
			Capabilities: []string{"all"},
		},
		Server: ServerConfig{
			Enabled: true,
			Address: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path, when set, and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides are picked up
// for keys absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.portal_url", d.Catalog.PortalURL)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)
	v.SetDefault("catalog.rate_limit", d.Catalog.RateLimit)
	v.SetDefault("catalog.rate_burst", d.Catalog.RateBurst)
	v.SetDefault("catalog.page_size", d.Catalog.PageSize)
	v.SetDefault("catalog.max_attempts", d.Catalog.MaxAttempts)
	v.SetDefault("catalog.retry_base_delay", d.Catalog.RetryBaseDelay)
	v.SetDefault("catalog.retry_max_delay", d.Catalog.RetryMaxDelay)

	v.SetDefault("auth.access_token", d.Auth.AccessToken)
	v.SetDefault("auth.client_id", d.Auth.ClientID)
	v.SetDefault("auth.client_secret", d.Auth.ClientSecret)
	v.SetDefault("auth.token_url", d.Auth.TokenURL)
	v.SetDefault("auth.scopes", d.Auth.Scopes)
	v.SetDefault("auth.refresh_token", d.Auth.RefreshToken)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)

	v.SetDefault("sync.schedule", d.Sync.Schedule)
	v.SetDefault("sync.run_on_start", d.Sync.RunOnStart)
	v.SetDefault("sync.temp_dir", d.Sync.TempDir)
	v.SetDefault("sync.lookup_concurrency", d.Sync.LookupConcurrency)
	v.SetDefault("sync.cursor_file", d.Sync.CursorFile)
	v.SetDefault("sync.run_retention", d.Sync.RunRetention)
	v.SetDefault("sync.tenant_id", d.Sync.TenantID)
	v.SetDefault("sync.import_languages", d.Sync.ImportLanguages)
	v.SetDefault("sync.channel_id", d.Sync.ChannelID)

	v.SetDefault("target.capabilities", d.Target.Capabilities)
	v.SetDefault("target.downloads", d.Target.Downloads)

	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.push_secret", d.Server.PushSecret)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks values that can be checked without network access.
func (c *Config) Validate() error {
	var errs []error
	if _, err := schedule.Parse(c.Sync.Schedule); err != nil {
		errs = append(errs, core.NewConfigurationError("sync.schedule", err))
	}
	switch c.Database.Driver {
	case "", storage.DriverSQLite, storage.DriverPostgres:
	default:
		errs = append(errs, core.NewConfigurationError("database.driver", fmt.Errorf("unsupported driver %q", c.Database.Driver)))
	}
	if _, err := target.ParseCapabilities(c.Target.Capabilities); err != nil {
		errs = append(errs, core.NewConfigurationError("target.capabilities", err))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, core.NewConfigurationError("log.level", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, core.NewConfigurationError("log.format", fmt.Errorf("unsupported format %q", c.Log.Format)))
	}
	if c.Auth.AccessToken == "" && c.Auth.ClientID != "" && c.Auth.TokenURL == "" {
		errs = append(errs, core.NewConfigurationError("auth.token_url", errors.New("required with auth.client_id")))
	}
	return errors.Join(errs...)
}

// Client returns the catalog client configuration.
func (c *Config) Client() *api.Config {
	cfg := api.DefaultConfig()
	cfg.BaseURL = c.Catalog.BaseURL
	cfg.PortalURL = c.Catalog.PortalURL
	if c.Catalog.Timeout > 0 {
		cfg.Timeout = c.Catalog.Timeout
	}
	if c.Catalog.RateLimit > 0 {
		cfg.RateLimit = c.Catalog.RateLimit
	}
	if c.Catalog.RateBurst > 0 {
		cfg.RateBurst = c.Catalog.RateBurst
	}
	if c.Catalog.PageSize > 0 {
		cfg.PageSize = c.Catalog.PageSize
	}
	if c.Catalog.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = c.Catalog.MaxAttempts
	}
	if c.Catalog.RetryBaseDelay > 0 {
		cfg.Retry.BaseDelay = c.Catalog.RetryBaseDelay
	}
	cfg.Retry.MaxDelay = c.Catalog.RetryMaxDelay
	return cfg
}

// OAuth2 returns the refresher configuration.
func (a AuthConfig) OAuth2() auth.Config {
	return auth.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		TokenURL:     a.TokenURL,
		Scopes:       a.Scopes,
	}
}

// Settings returns the connector settings to seed, or nil when none are
// configured.
func (s SyncConfig) Settings() *core.Settings {
	if s.TenantID == "" && len(s.ImportLanguages) == 0 && s.ChannelID == "" {
		return nil
	}
	return &core.Settings{
		TenantID:        s.TenantID,
		ImportLanguages: s.ImportLanguages,
		ChannelID:       s.ChannelID,
	}
}

// PoolOptions returns connection pool overrides.
func (d DatabaseConfig) PoolOptions() []storage.PoolOption {
	var opts []storage.PoolOption
	if d.MaxOpenConns > 0 {
		opts = append(opts, storage.MaxOpenConns(d.MaxOpenConns))
	}
	if d.MaxIdleConns > 0 {
		opts = append(opts, storage.MaxIdleConns(d.MaxIdleConns))
	}
	return opts
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}

// Logger builds the process logger writing to w. debug forces debug level.
func (l LogConfig) Logger(w io.Writer, debug bool) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
