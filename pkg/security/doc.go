// Package security provides validation, sanitization, and limits for the sync engine.
//
// This package includes:
//   - Settings validation for tenant IDs, import languages and channel IDs
//   - Error message sanitization before messages are stored or returned
//   - Clamping functions for page sizes, retry attempts and concurrency
//   - Security-related constants defining maximum sizes and counts
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which re-exports these functions.
package security
