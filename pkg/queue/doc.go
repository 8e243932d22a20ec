// Package queue provides the JobExecutionQueue that serializes sync runs.
//
// This package includes:
//   - Queue: a two-slot admission queue owned by a single actor goroutine
//   - Admission rules that coalesce push triggers and scheduled runs
//   - Option: configuration for logging, metrics and the job context
//   - Event subscription for monitoring
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which re-exports Queue and all option functions.
package queue
