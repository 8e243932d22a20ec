// Package api provides resilient access to the asset catalog API.
//
// This package includes:
//   - Client: a rate-limited HTTP client for generic metadata and the
//     paginated license purchase transaction feed
//   - RetryPolicy: exponential backoff with token refresh on 401/403
//   - Import-language filtering with an English fallback
//
// Most users should import the root package github.com/jdziat/simple-asset-sync
// which re-exports Client and its configuration.
package api
