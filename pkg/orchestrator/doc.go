// Package orchestrator runs the sync pipeline.
//
// An Orchestrator pulls generic metadata and licensed assets from a
// Catalog and delivers them to a target.SyncTarget. One call to Run is one
// pipeline execution:
//
//   - settings and target capabilities are validated before any network call
//   - target hooks gate each stage and may abort the run
//   - generic metadata is imported and its target IDs cached in a KeyCache
//   - asset pages are transformed, classified and delivered in four buckets
//   - the feed cursor is committed after each delivered page
//
// Run never returns an error. Failures are routed to the target's error
// handlers, recorded in the run history and emitted as events.
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which re-exports the types from this package.
package orchestrator
