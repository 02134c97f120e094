// Package metrics records Prometheus HTTP metrics for every request.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/observability/metrics"
)

// unmatchedRoute labels requests that hit no route, so raw URLs never become labels.
const unmatchedRoute = "unmatched"

// Metrics creates middleware that records request duration, request count and
// in-flight requests. The path label is the route template.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.IncInFlight()
		defer m.DecInFlight()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		m.Observe(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
