package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// AccessTokenCookie is the cookie Guard falls back to when no bearer header is sent.
const AccessTokenCookie = "accessToken"

type principalContextKey struct{}

// PrincipalFromContext returns the principal id stored by [Guard].
func PrincipalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalContextKey{}).(string)
	return id, ok && id != ""
}

// WithPrincipal stores a verified principal id on ctx.
func WithPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principalID)
}

// Guard verifies the access token and stores its principal id on the request
// context. Requests without a valid token get 401 and never reach next.
func Guard(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized request")
				return
			}

			token, ok := AccessToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized request")
				return
			}

			principalID, err := engine.VerifyAccess(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principalID)))
		})
	}
}

// AccessToken extracts the access token from the Authorization header, or
// from the access-token cookie when the header is absent.
func AccessToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		return bearerToken(h)
	}
	c, err := r.Cookie(AccessTokenCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{StatusCode: status, Message: message})
}
