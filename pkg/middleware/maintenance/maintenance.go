// Package maintenance refuses mutating requests while maintenance mode is on.
package maintenance

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
)

// Checker reports whether maintenance mode is on.
type Checker interface {
	MaintenanceEnabled(ctx context.Context) bool
}

// Middleware answers 503 to POST, PUT, PATCH and DELETE requests while
// checker reports maintenance mode. Reads always pass, as do paths under any
// of the exempt prefixes, so maintenance can be switched off again.
func Middleware(checker Checker, exemptPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutation(c.Request.Method) || exempt(c.Request.URL.Path, exemptPrefixes) {
			c.Next()
			return
		}
		if checker.MaintenanceEnabled(c.Request.Context()) {
			c.Header("Retry-After", "60")
			controller.Error(c, controller.NewServiceUnavailableError("maintenance.enabled",
				"the platform is in maintenance mode; changes are disabled"))
			return
		}
		c.Next()
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func exempt(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
