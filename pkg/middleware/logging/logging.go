// Package logging writes one structured access log entry per request.
package logging

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/observability/logger"
)

// Mode defines logging verbosity for matching request paths.
type Mode string

// Logging mode constants
const (
	// ModeOff disables request logging
	ModeOff Mode = "off"
	// ModeMinimal logs method, path, status and duration only
	ModeMinimal Mode = "minimal"
	// ModeFull logs complete request details
	ModeFull Mode = "full"
)

// Log field name constants
const (
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldRoute      = "route"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldRemoteAddr = "remote_addr"
	FieldUserAgent  = "http_user_agent"
	FieldQuery      = "query_string"
	FieldBytesOut   = "response_bytes"
)

// Config configures request logging middleware behavior.
type Config struct {
	Enabled              bool
	LogStart             bool
	ExcludedPathPrefixes []string
	PathPolicies         []PathPolicy
}

// PathPolicy configures a logging mode for a path prefix.
type PathPolicy struct {
	Prefix string
	Mode   Mode
}

// DefaultConfig returns default request logging behavior.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
	}
}

// Logging creates middleware with default configuration.
func Logging(log logger.Logger) gin.HandlerFunc {
	return WithConfig(log, DefaultConfig())
}

// WithConfig creates middleware that logs HTTP requests and responses.
// Server errors are logged at error level, client errors at warn level and
// everything else at info level.
func WithConfig(log logger.Logger, cfg Config) gin.HandlerFunc {
	for i := range cfg.PathPolicies {
		cfg.PathPolicies[i].Mode = parseMode(cfg.PathPolicies[i].Mode)
	}

	return func(c *gin.Context) {
		mode := cfg.modeForPath(c.Request.URL.Path)
		if mode == ModeOff {
			c.Next()
			return
		}

		start := time.Now()
		reqLog := log.WithContext(c.Request.Context())
		if cfg.LogStart && mode == ModeFull {
			reqLog.Info("request started",
				FieldMethod, c.Request.Method,
				FieldPath, c.Request.URL.Path,
			)
		}

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			FieldMethod, c.Request.Method,
			FieldPath, c.Request.URL.Path,
			FieldStatus, status,
			FieldDurationMS, time.Since(start).Milliseconds(),
		}
		if mode == ModeFull {
			fields = append(fields,
				FieldRoute, c.FullPath(),
				FieldRemoteAddr, c.ClientIP(),
				FieldUserAgent, c.Request.UserAgent(),
				FieldQuery, c.Request.URL.RawQuery,
				FieldBytesOut, c.Writer.Size(),
			)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, FieldError, errs.String())
		}

		switch {
		case status >= 500:
			reqLog.Error("request completed", fields...)
		case status >= 400:
			reqLog.Warn("request completed", fields...)
		default:
			reqLog.Info("request completed", fields...)
		}
	}
}

func (c Config) modeForPath(path string) Mode {
	if !c.Enabled {
		return ModeOff
	}

	for _, prefix := range c.ExcludedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ModeOff
		}
	}

	bestLen := -1
	bestMode := ModeFull
	for _, policy := range c.PathPolicies {
		if strings.TrimSpace(policy.Prefix) == "" {
			continue
		}
		if strings.HasPrefix(path, policy.Prefix) && len(policy.Prefix) > bestLen {
			bestLen = len(policy.Prefix)
			bestMode = policy.Mode
		}
	}
	return bestMode
}

func parseMode(mode Mode) Mode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(ModeOff):
		return ModeOff
	case string(ModeMinimal):
		return ModeMinimal
	default:
		return ModeFull
	}
}
