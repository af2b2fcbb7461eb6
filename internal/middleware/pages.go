package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
)

// Page paths handled by the redirect rules.
const (
	LoginPagePath = "/login"
	AppHomePath   = "/app"
)

var authOnlyPages = []string{"/login", "/signup"}

func hasValidAccessToken(c *gin.Context, authService *services.AuthService) bool {
	token, err := c.Cookie(constants.AccessTokenCookie)
	if err != nil || token == "" {
		return false
	}
	_, err = authService.VerifyAccessToken(token)
	return err == nil
}

// RequirePageAuth protects server-rendered pages: unauthenticated visitors are
// redirected to the login page carrying the original path in a redirect query
// parameter.
func RequirePageAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasValidAccessToken(c, authService) {
			c.Next()
			return
		}

		target := LoginPagePath + "?redirect=" + url.QueryEscape(c.Request.URL.Path)
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// RedirectAuthenticated sends already-authenticated visitors away from
// auth-only pages (login, signup) to the app home.
func RedirectAuthenticated(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, page := range authOnlyPages {
			if strings.HasPrefix(c.Request.URL.Path, page) && hasValidAccessToken(c, authService) {
				c.Redirect(http.StatusFound, AppHomePath)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
