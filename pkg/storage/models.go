package storage

import (
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// DefaultName scopes stored state when a database serves a single connector.
const DefaultName = "default"

// CursorRecord is the committed feed cursor of one connector.
type CursorRecord struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Token     string    `gorm:"size:255"`
	HasMore   bool      `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps the table name stable.
func (CursorRecord) TableName() string {
	return "sync_cursors"
}

// SettingsRecord stores the connector settings.
type SettingsRecord struct {
	Name            string    `gorm:"primaryKey;size:64"`
	TenantID        string    `gorm:"size:63"`
	ImportLanguages []string  `gorm:"serializer:json"`
	ChannelID       string    `gorm:"size:255"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps the table name stable.
func (SettingsRecord) TableName() string {
	return "sync_settings"
}

func (r *SettingsRecord) settings() *core.Settings {
	return &core.Settings{
		TenantID:        r.TenantID,
		ImportLanguages: r.ImportLanguages,
		ChannelID:       r.ChannelID,
	}
}

// TokenRecord stores the catalog token pair.
type TokenRecord struct {
	Name         string `gorm:"primaryKey;size:64"`
	AccessToken  string `gorm:"type:text"`
	RefreshToken string `gorm:"type:text"`
	TokenType    string `gorm:"size:32"`
	Expiry       *time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps the table name stable.
func (TokenRecord) TableName() string {
	return "auth_tokens"
}

func (r *TokenRecord) token() *core.Token {
	t := &core.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}
	if r.Expiry != nil {
		t.Expiry = *r.Expiry
	}
	return t
}
