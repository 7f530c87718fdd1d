package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit.  Reads past the cap fail with
// *http.MaxBytesError; handlers answer 413 in their own response shape.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if body := c.Request.Body; body != nil && body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, body, limit)
		}
		c.Next()
	}
}
