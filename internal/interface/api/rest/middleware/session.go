package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filedrive/internal/infrastructure/jwt"
)

const CtxSession = "sessionClaims"

type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// Session resolves the caller from the session cookie. Claims are trusted
// as signed; the credential store is not consulted. Requests without a
// valid session are sent to loginPath.
func Session(verifier TokenVerifier, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(CtxSession, claims)

		c.Next()
	}
}

// SessionFrom returns the claims stored by Session.
func SessionFrom(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(CtxSession)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok && claims != nil
}
