package middleware

import (
	"context"
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type profileContextKey struct{}

// ProfileFromContext returns the profile loaded by [RequireProfile].
func ProfileFromContext(ctx context.Context) (goSession.Profile, bool) {
	p, ok := ctx.Value(profileContextKey{}).(goSession.Profile)
	return p, ok
}

// RequireProfile runs [Guard] and then loads the principal's profile, so
// tokens of deleted principals are rejected. A store failure answers with
// the engine's dependency status.
func RequireProfile(engine *goSession.Engine) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		load := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID, _ := PrincipalFromContext(r.Context())
			profile, err := engine.CurrentProfile(r.Context(), principalID)
			switch {
			case errors.Is(err, goSession.ErrPrincipalNotFound):
				writeError(w, http.StatusUnauthorized, "invalid access token")
				return
			case err != nil:
				status := goSession.HTTPStatus(err)
				writeError(w, status, http.StatusText(status))
				return
			}

			ctx := context.WithValue(r.Context(), profileContextKey{}, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		return guard(load)
	}
}
