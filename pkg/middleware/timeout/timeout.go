// Package timeout puts a deadline on every request context.
package timeout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
)

// DefaultTimeout applies when a non-positive timeout is given.
const DefaultTimeout = 15 * time.Second

// Middleware derives a request context that expires after timeout. Handlers
// that return the context error get the standard 504 envelope through
// controller.Error; a handler that wrote nothing before the deadline is
// answered with 504 here.
func Middleware(timeout time.Duration, excludedPathPrefixes ...string) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(c *gin.Context) {
		for _, prefix := range excludedPathPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			controller.Error(c, ctx.Err())
		}
	}
}
