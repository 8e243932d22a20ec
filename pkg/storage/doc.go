// Package storage provides persistence for cursors, settings, tokens and run history.
//
// This package includes:
//   - GormStorage: a GORM-based implementation supporting SQLite and PostgreSQL
//   - MemoryStorage: an in-process implementation for tests and one-off runs
//   - FileCursorStore: a YAML file holding only the feed cursor
//
// The collaborator interfaces (CursorStore, SettingsProvider, TokenStore,
// RunRecorder) are defined in pkg/core.
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which provides NewGormStorage() to create storage instances.
package storage
