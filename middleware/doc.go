// Package middleware exposes net/http adapters over goSession.Engine.
//
// # Guards
//
//   - [Guard] verifies the access token only. No store is touched.
//   - [RequireProfile] verifies the token and loads the principal's profile.
//
// Both read the Authorization bearer header first and the accessToken cookie
// second, and answer 401 with a JSON body on rejection.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine.VerifyAccess).
//   - Read or write refresh tokens.
package middleware
