// Package core provides the fundamental types and interfaces for the assetsync package.
//
// This package contains:
//   - Job and Origin types consumed by the execution queue
//   - Raw catalog records (RawAsset, Binary, GenericMetadata) and the
//     transformed TargetAsset delivered to sync targets
//   - Cursor and SyncRun models with GORM annotations
//   - Collaborator interfaces (AuthRefresher, SettingsProvider, CursorStore)
//   - Event types for pipeline monitoring
//   - Error taxonomy for sync runs
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// instead of this package directly.
package core
