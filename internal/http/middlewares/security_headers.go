package middlewares

import "github.com/gin-gonic/gin"

// The API only serves JSON, so nothing may be framed or loaded from it.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets the response hardening headers.  HSTS is only sent
// in production, where the API sits behind TLS.
func SecurityHeaders(env string) gin.HandlerFunc {
	hsts := env == "prod" || env == "production"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", apiCSP)
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
