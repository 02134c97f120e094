// Package requestid assigns every request an ID and propagates it through the
// request context.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nimburion/tutoradmin/pkg/observability/logger"
)

// RequestIDHeader is the HTTP header name for request ID.
const RequestIDHeader = "X-Request-ID"

// ContextKey is the gin context key the request ID is stored under.
const ContextKey = "request_id"

// RequestID creates middleware that generates or extracts request IDs.
// A request without X-Request-ID gets a new UUID; an existing header is
// preserved. The ID is echoed in the response headers and stored in both the
// gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// Get returns the request ID of c, or an empty string.
func Get(c *gin.Context) string {
	return c.GetString(ContextKey)
}
