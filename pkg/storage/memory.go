package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/security"
)

// MemoryStorage keeps cursor, settings, token and runs in process memory.
// State is lost on exit.
type MemoryStorage struct {
	mu       sync.RWMutex
	cursor   *core.Cursor
	settings *core.Settings
	token    *core.Token
	runs     []core.SyncRun
}

// NewMemoryStorage creates an empty MemoryStorage holding settings.
func NewMemoryStorage(settings *core.Settings) *MemoryStorage {
	m := &MemoryStorage{}
	if settings != nil {
		s := *settings
		s.ImportLanguages = slices.Clone(settings.ImportLanguages)
		m.settings = &s
	}
	return m
}

// GetCursor returns the committed cursor, or nil.
func (m *MemoryStorage) GetCursor(context.Context) (*core.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cursor == nil {
		return nil, nil
	}
	c := *m.cursor
	return &c, nil
}

// SetCursor commits cursor.
func (m *MemoryStorage) SetCursor(_ context.Context, cursor core.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = &cursor
	return nil
}

// Settings returns a copy of the settings.
func (m *MemoryStorage) Settings(context.Context) (*core.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return &core.Settings{}, nil
	}
	s := *m.settings
	s.ImportLanguages = slices.Clone(m.settings.ImportLanguages)
	return &s, nil
}

// SaveSettings validates and replaces the settings.
func (m *MemoryStorage) SaveSettings(_ context.Context, settings *core.Settings) error {
	if err := security.ValidateSettings(settings); err != nil {
		return err
	}
	s := *settings
	s.ImportLanguages = slices.Clone(settings.ImportLanguages)
	m.mu.Lock()
	m.settings = &s
	m.mu.Unlock()
	return nil
}

// GetToken returns the stored token pair, or nil.
func (m *MemoryStorage) GetToken(context.Context) (*core.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return nil, nil
	}
	t := *m.token
	return &t, nil
}

// SetToken replaces the token pair.
func (m *MemoryStorage) SetToken(_ context.Context, token *core.Token) error {
	if token == nil {
		return core.ErrMissingAccessToken
	}
	t := *token
	m.mu.Lock()
	m.token = &t
	m.mu.Unlock()
	return nil
}

// SaveRun inserts or replaces a run record.
func (m *MemoryStorage) SaveRun(_ context.Context, run *core.SyncRun) error {
	r := *run
	r.Error = security.SanitizeErrorMessage(r.Error)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == r.ID {
			m.runs[i] = r
			return nil
		}
	}
	m.runs = append(m.runs, r)
	return nil
}

// ListRuns returns runs newest first.
func (m *MemoryStorage) ListRuns(_ context.Context, filter RunFilter) ([]*core.SyncRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 || limit > security.MaxRunListLimit {
		limit = security.MaxRunListLimit
	}

	var out []*core.SyncRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.runs[i]
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Origin != "" && r.Origin != filter.Origin {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}
