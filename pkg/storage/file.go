package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// CursorFileName is the default name of the cursor file.
const CursorFileName = "cursor.yaml"

// FileCursorStore keeps the feed cursor in a YAML file.
type FileCursorStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCursorStore creates a cursor store writing to path.
func NewFileCursorStore(path string) *FileCursorStore {
	return &FileCursorStore{path: path}
}

// GetCursor reads the cursor file. A missing file means no cursor was
// committed yet.
func (f *FileCursorStore) GetCursor(context.Context) (*core.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cursor file: %w", err)
	}

	var cursor core.Cursor
	if err := yaml.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}
	return &cursor, nil
}

// SetCursor replaces the cursor file atomically.
func (f *FileCursorStore) SetCursor(_ context.Context, cursor core.Cursor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create cursor directory: %w", err)
	}

	data, err := yaml.Marshal(&cursor)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary cursor file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cursor file: %w", err)
	}
	return nil
}
