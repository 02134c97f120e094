// Package requestsize bounds the size of request bodies.
package requestsize

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
)

// Middleware enforces a maximum request body size in bytes.
// A non-positive maxBytes disables the middleware. Bodies that declare a
// larger Content-Length are refused up front; undeclared bodies fail with
// *http.MaxBytesError when the handler reads past the limit.
func Middleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			controller.Error(c, controller.NewPayloadTooLargeError(maxBytes, nil))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

