package httpmiddleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBody caps the request body at n bytes. Requests that declare a larger
// Content-Length get 413 straight away; bodies that stream past the cap fail
// to read with *http.MaxBytesError.
func MaxBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
