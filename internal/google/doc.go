// Package google provides OAuth2 credential management for the Google
// Calendar API.
//
// Credentials come from an ordered list of token providers: an inline
// environment value (production) and a local token file (development). The
// Store resolves a valid token on demand, refreshing expired tokens through
// the OAuth2 endpoint with a single-flight guard so concurrent requests share
// one refresh. Refreshed tokens are persisted back to the file provider only;
// the inline environment source is read-only by design and operators must
// rotate it manually.
package google
