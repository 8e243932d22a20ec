// Package schedule provides the timer schedules that trigger full syncs.
//
// This package includes:
//   - Schedule interface computing the next trigger time
//   - Every() for fixed-interval schedules (the default is every 30 minutes)
//   - Daily() and Weekly() for wall-clock schedules
//   - Cron() and ParseCron() for cron expressions
//   - Parse() for schedules written in configuration files
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which re-exports these functions.
package schedule
