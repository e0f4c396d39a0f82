package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware validates HTTP Basic credentials for the admin
// surface.
func AdminAuthMiddleware(username, password string) gin.HandlerFunc {
	if username == "" || password == "" {
		// No credentials configured: the admin surface is disabled, not
		// guessable. No WWW-Authenticate challenge is sent.
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "admin endpoints are disabled",
			})
		}
	}
	userBytes := []byte(username)
	passBytes := []byte(password)

	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		// Use subtle.ConstantTimeCompare to prevent timing attacks.
		// Both comparisons always run so a valid username alone is not
		// observable.
		userOK := subtle.ConstantTimeCompare([]byte(user), userBytes) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), passBytes) == 1
		if !ok || !userOK || !passOK {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
