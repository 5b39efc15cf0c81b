package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const SessionCookie = "token"

// CookieOptions describes how the session cookie is issued. A zero TTL
// makes it a browser-session cookie with no Max-Age.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func SetSessionCookie(c *gin.Context, token string, opts CookieOptions) {
	ck := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.TTL > 0 {
		ck.MaxAge = int(opts.TTL / time.Second)
	}

	http.SetCookie(c.Writer, ck)
}

func ClearSessionCookie(c *gin.Context, opts CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
