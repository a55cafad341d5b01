// Package jwt issues and verifies the signed, time-bounded credentials used by
// the session engine. Access and refresh tokens are signed with independent
// keys and carry independent lifetimes.
//
// # Architecture boundaries
//
// A Codec is a pure function of its configuration and clock. It never touches
// storage and never decides whether a refresh token is the current one for a
// principal; that check belongs to the engine and the session store.
//
// # What this package must NOT do
//
//   - Persist or cache tokens.
//   - Return errors other than ErrExpired, ErrInvalidSignature, or ErrMalformed
//     from Verify.
package jwt
