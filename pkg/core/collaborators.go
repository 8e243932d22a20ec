package core

import (
	"context"
	"slices"
	"time"
)

// AuthRefresher provides catalog access tokens.
type AuthRefresher interface {
	// RefreshAccessToken obtains a new access token. It is idempotent and
	// safe to call speculatively.
	RefreshAccessToken(ctx context.Context) error

	// AccessToken returns the current access token.
	AccessToken(ctx context.Context) (string, error)
}

// Settings is a read-only snapshot of the connector settings.
type Settings struct {
	TenantID        string   `json:"tenant_id" yaml:"tenant_id"`
	ImportLanguages []string `json:"import_languages" yaml:"import_languages"`
	ChannelID       string   `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
}

// HasLanguage reports whether lang is one of the import languages.
func (s *Settings) HasLanguage(lang string) bool {
	return slices.Contains(s.ImportLanguages, lang)
}

// ValidateForSync checks the settings every sync run needs.
func (s *Settings) ValidateForSync() error {
	if s == nil || s.TenantID == "" {
		return NewConfigurationError("tenant_id", ErrMissingTenantID)
	}
	if len(s.ImportLanguages) == 0 {
		return NewConfigurationError("import_languages", ErrMissingLanguages)
	}
	return nil
}

// ValidateForPush additionally requires the push channel.
func (s *Settings) ValidateForPush() error {
	if err := s.ValidateForSync(); err != nil {
		return err
	}
	if s.ChannelID == "" {
		return NewConfigurationError("channel_id", ErrMissingChannelID)
	}
	return nil
}

// SettingsProvider returns the current settings snapshot.
type SettingsProvider interface {
	Settings(ctx context.Context) (*Settings, error)
}

// CursorStore persists the asset feed cursor.
type CursorStore interface {
	// GetCursor returns the last committed cursor, or nil on first run.
	GetCursor(ctx context.Context) (*Cursor, error)

	// SetCursor commits a cursor.
	SetCursor(ctx context.Context, cursor Cursor) error
}

// RunRecorder persists sync run records.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *SyncRun) error
}

// Token is a persisted OAuth token pair.
type Token struct {
	AccessToken  string    `json:"access_token" yaml:"access_token"`
	RefreshToken string    `json:"refresh_token" yaml:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty" yaml:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty" yaml:"expiry,omitempty"`
}

// TokenStore persists the catalog token pair.
type TokenStore interface {
	// GetToken returns the stored token, or nil when none was stored.
	GetToken(ctx context.Context) (*Token, error)
	SetToken(ctx context.Context, token *Token) error
}
