// Package goSession provides a credential-based session manager: password
// login, short-lived JWT access tokens, and a rotating refresh token of which
// exactly one is valid per principal at any time.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config], the
// error taxonomy, and value types (Profile, SessionPair, MetricsSnapshot). Flow
// orchestration and audit dispatch live under internal/ and are never exported.
// Token signing is in package jwt, hashing in package password, and the
// refresh token store contract in package session.
//
// # Refresh token rotation
//
// The session store holds a SHA-256 digest of the current refresh token.
// [Engine.Refresh] swaps it for the digest of a new token with a single
// compare-and-swap, so a token that has already been rotated, or that lost a
// concurrent rotation, fails with [ErrTokenReuseDetected] without changing
// stored state.
//
// # What this package must NOT do
//
//   - Retry store or media calls internally. Failures surface as
//     [ErrStoreUnavailable] or [ErrAssetUploadFailed].
//   - Start without signing keys. [Config.Validate] has no insecure defaults.
//   - Return password hashes or stored refresh digests to callers.
package goSession
