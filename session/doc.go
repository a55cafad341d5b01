// Package session defines the session store adapter: the single persisted
// refresh-token value per principal, and the atomic compare-and-swap that
// serializes concurrent rotations.
//
// # Architecture boundaries
//
// Values handed to a Store are opaque. The engine writes [Digest] of each
// refresh token rather than the token itself, so a leaked store does not leak
// usable credentials.
//
// Adapters in this package and under store/ must guarantee that a
// CompareAndSwap observes the value written by the most recent Set or
// successful CompareAndSwap for the same principal.
//
// # What this package must NOT do
//
//   - Verify token signatures or expiry.
//   - Retry failed writes.
package session
