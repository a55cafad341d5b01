// Package flows contains the session protocol orchestrators used by the
// engine: login, refresh rotation, logout, and secret change.
//
// Each Run function takes a dependency struct and returns a result carrying a
// failure kind. The engine maps failure kinds to its public errors, metrics,
// audit events, and logs.
//
// # Architecture boundaries
//
// Flows coordinate the token codec, the credential verifier, the principal
// lookups, and the session store. They do not own any of these.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession.
//   - Retry failed store calls.
package flows
