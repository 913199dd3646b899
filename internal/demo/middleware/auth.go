package middleware

import (
	"crypto/subtle"

	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// PrivateTokenHeader carries the shared secret on every simulation request.
const PrivateTokenHeader = "private-token"

// TokenAuthMiddleware rejects requests whose private-token header does not
// match the configured secret. The check runs before any body handling.
func TokenAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(PrivateTokenHeader)
		if token == "" {
			response.AbortWithError(c, appErr.New(appErr.TokenMissing))
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			response.AbortWithError(c, appErr.New(appErr.TokenInvalid))
			return
		}
		c.Next()
	}
}
