package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/config"
	"github.com/nimburion/tutoradmin/pkg/health"
	"github.com/nimburion/tutoradmin/pkg/middleware/logging"
	"github.com/nimburion/tutoradmin/pkg/middleware/recovery"
	"github.com/nimburion/tutoradmin/pkg/middleware/requestid"
	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/observability/metrics"
	"github.com/nimburion/tutoradmin/pkg/version"
)

// Management endpoint paths.
const (
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
	MetricsPath   = "/metrics"
	VersionPath   = "/version"
)

// ManagementHandler builds the router of the management server:
//   - /healthz: liveness, always 200 while the process serves
//   - /readyz: aggregated health checks, 503 when unhealthy
//   - /metrics: Prometheus metrics
//   - /version: build metadata
//
// Degraded checks, such as maintenance mode, still answer 200 on /readyz.
func ManagementHandler(log logger.Logger, healthRegistry *health.Registry, metricsRegistry *metrics.Registry, info version.Info) *gin.Engine {
	if log == nil {
		log = logger.NewNop()
	}
	r := gin.New()
	r.Use(
		requestid.RequestID(),
		logging.WithConfig(log, logging.Config{
			Enabled:              true,
			ExcludedPathPrefixes: []string{LivenessPath, MetricsPath},
		}),
		recovery.Recovery(log),
	)

	r.GET(LivenessPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": health.StatusHealthy})
	})
	r.GET(ReadinessPath, func(c *gin.Context) {
		res := healthRegistry.Check(c.Request.Context())
		status := http.StatusOK
		if !res.IsServing() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, res)
	})
	r.GET(MetricsPath, gin.WrapH(metricsRegistry.Handler()))
	r.GET(VersionPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})
	return r
}

// NewManagementServer creates the management server from cfg.
func NewManagementServer(cfg config.ManagementConfig, handler http.Handler, log logger.Logger) *Server {
	return NewServer("management", Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}, handler, log)
}

// NewPublicServer creates the public API server from cfg.
func NewPublicServer(cfg config.HTTPConfig, handler http.Handler, log logger.Logger) *Server {
	return NewServer("public", Config{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, handler, log)
}
