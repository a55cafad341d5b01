package httpapi

import (
	"net/http"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
)

// RefreshTokenCookie carries the refresh token between requests.
const RefreshTokenCookie = "refreshToken"

// CookieOptions controls the token cookies set on login and refresh.
type CookieOptions struct {
	Secure     bool
	Domain     string
	Path       string
	SameSite   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) sameSite() http.SameSite {
	switch strings.ToLower(o.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (o CookieOptions) cookie(name, value string, maxAge int) *http.Cookie {
	path := o.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   o.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	}
}

func (o CookieOptions) setPair(w http.ResponseWriter, pair goSession.SessionPair) {
	http.SetCookie(w, o.cookie(middleware.AccessTokenCookie, pair.AccessToken, int(o.AccessTTL.Seconds())))
	http.SetCookie(w, o.cookie(RefreshTokenCookie, pair.RefreshToken, int(o.RefreshTTL.Seconds())))
}

func (o CookieOptions) clear(w http.ResponseWriter) {
	http.SetCookie(w, o.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, o.cookie(RefreshTokenCookie, "", -1))
}
