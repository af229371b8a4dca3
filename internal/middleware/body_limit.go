package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds compliance submissions. Project descriptions
// are capped well below this by validation.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects request bodies larger than maxBytes. Oversized bodies
// surface to handlers as a read error during binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": gin.H{
					"code":       "REQUEST_TOO_LARGE",
					"message":    "Request body is too large",
					"request_id": GetRequestID(c),
				},
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
