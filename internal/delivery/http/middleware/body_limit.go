package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies: multipart uploads get multipartMax bytes,
// everything else jsonMax. Reads past the limit fail with *http.MaxBytesError.
func BodyLimit(multipartMax, jsonMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := jsonMax
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = multipartMax
		}

		if c.Request.ContentLength > limit {
			c.Header("Connection", "close")
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
