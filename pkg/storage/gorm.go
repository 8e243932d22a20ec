package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/security"
)

// GormStorage implements the sync collaborators using GORM.
type GormStorage struct {
	db   *gorm.DB
	name string
}

// Option configures a GormStorage.
type Option interface {
	applyGorm(*GormStorage)
}

type optionFunc func(*GormStorage)

func (f optionFunc) applyGorm(s *GormStorage) { f(s) }

// WithName scopes cursor, settings and token rows so several connectors
// can share a database.
func WithName(name string) Option {
	return optionFunc(func(s *GormStorage) {
		if name != "" {
			s.name = name
		}
	})
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB, opts ...Option) *GormStorage {
	s := &GormStorage{db: db, name: DefaultName}
	for _, opt := range opts {
		opt.applyGorm(s)
	}
	return s
}

// DB returns the underlying database handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&CursorRecord{},
		&SettingsRecord{},
		&TokenRecord{},
		&core.SyncRun{},
	)
}

// GetCursor returns the committed cursor, or nil before the first commit.
func (s *GormStorage) GetCursor(ctx context.Context) (*core.Cursor, error) {
	var rec CursorRecord
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &core.Cursor{Token: rec.Token, HasMore: rec.HasMore}, nil
}

// SetCursor commits cursor.
func (s *GormStorage) SetCursor(ctx context.Context, cursor core.Cursor) error {
	rec := CursorRecord{Name: s.name, Token: cursor.Token, HasMore: cursor.HasMore, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "has_more", "updated_at"}),
	}).Create(&rec).Error
}

// ResetCursor forgets the committed cursor so the next run starts the feed over.
func (s *GormStorage) ResetCursor(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("name = ?", s.name).Delete(&CursorRecord{}).Error
}

// Settings returns the stored settings. Missing settings yield an empty
// snapshot, which fails validation with a configuration error.
func (s *GormStorage) Settings(ctx context.Context) (*core.Settings, error) {
	var rec SettingsRecord
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &core.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.settings(), nil
}

// SaveSettings validates and stores settings.
func (s *GormStorage) SaveSettings(ctx context.Context, settings *core.Settings) error {
	if err := security.ValidateSettings(settings); err != nil {
		return err
	}
	rec := SettingsRecord{
		Name:            s.name,
		TenantID:        settings.TenantID,
		ImportLanguages: settings.ImportLanguages,
		ChannelID:       settings.ChannelID,
		UpdatedAt:       time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "import_languages", "channel_id", "updated_at"}),
	}).Create(&rec).Error
}

// GetToken returns the stored token pair, or nil.
func (s *GormStorage) GetToken(ctx context.Context) (*core.Token, error) {
	var rec TokenRecord
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.token(), nil
}

// SetToken stores token, replacing any earlier pair.
func (s *GormStorage) SetToken(ctx context.Context, token *core.Token) error {
	if token == nil {
		return core.ErrMissingAccessToken
	}
	rec := TokenRecord{
		Name:         s.name,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		UpdatedAt:    time.Now(),
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		rec.Expiry = &expiry
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expiry", "updated_at"}),
	}).Create(&rec).Error
}

// SaveRun inserts or updates a run record.
func (s *GormStorage) SaveRun(ctx context.Context, run *core.SyncRun) error {
	run.Error = security.SanitizeErrorMessage(run.Error)
	return s.db.WithContext(ctx).Save(run).Error
}

// GetRun retrieves a run by ID.
func (s *GormStorage) GetRun(ctx context.Context, id string) (*core.SyncRun, error) {
	var run core.SyncRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status core.RunStatus
	Origin string
	Limit  int
}

// ListRuns returns runs newest first.
func (s *GormStorage) ListRuns(ctx context.Context, filter RunFilter) ([]*core.SyncRun, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Origin != "" {
		q = q.Where("origin = ?", filter.Origin)
	}
	limit := filter.Limit
	if limit <= 0 || limit > security.MaxRunListLimit {
		limit = security.MaxRunListLimit
	}

	var runs []*core.SyncRun
	err := q.Limit(limit).Find(&runs).Error
	return runs, err
}

// PruneRuns deletes finished runs that started before olderThan.
func (s *GormStorage) PruneRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := s.db.WithContext(ctx).
		Where("status <> ?", core.RunStatusRunning).
		Where("started_at < ?", cutoff).
		Delete(&core.SyncRun{})
	return result.RowsAffected, result.Error
}
