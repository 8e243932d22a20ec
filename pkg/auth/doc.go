// Package auth provides core.AuthRefresher implementations for the catalog.
//
// This package includes:
//   - OAuth2Refresher: exchanges a stored refresh token through golang.org/x/oauth2
//   - StaticToken: a fixed access token for tests and short-lived tooling
//
// Token acquisition (browser redirects, consent) happens elsewhere; the
// refresher only keeps an already issued token pair fresh.
package auth
