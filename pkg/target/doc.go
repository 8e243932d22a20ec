// Package target defines the SyncTarget contract that receives synced assets.
//
// This package includes:
//   - SyncTarget: capability flags, lifecycle hooks, metadata import,
//     existing-ID lookups, bulk delivery and error handlers
//   - Capabilities: runtime capability flags
//   - Hooks: no-op lifecycle defaults for embedding
//   - GormTarget: a reference target that stores metadata and assets with GORM
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which re-exports these types.
package target
