package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// isLocalRequest reports whether the request comes from a local frontend.
// Origin wins over Host, as browsers send it on cross-site calls.
func isLocalRequest(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Host
	}
	return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
}

// setSessionCookie issues an HTTP-only session cookie.  Remote frontends
// get Secure + SameSite=None so the cookie survives cross-site requests;
// local development gets Lax over plain HTTP.
func setSessionCookie(c echo.Context, name, token string, ttl time.Duration) {
	secure := !isLocalRequest(c.Request())
	same := http.SameSiteNoneMode
	if !secure {
		same = http.SameSiteLaxMode
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: same,
	})
}

func clearSessionCookie(c echo.Context, name string) {
	secure := !isLocalRequest(c.Request())
	same := http.SameSiteNoneMode
	if !secure {
		same = http.SameSiteLaxMode
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: same,
	})
}
