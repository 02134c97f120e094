// Package api exposes the admin services as a JSON API over gin.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/dashboard"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
	"github.com/nimburion/tutoradmin/pkg/llmconfig"
	"github.com/nimburion/tutoradmin/pkg/middleware/compression"
	"github.com/nimburion/tutoradmin/pkg/middleware/cors"
	"github.com/nimburion/tutoradmin/pkg/middleware/logging"
	"github.com/nimburion/tutoradmin/pkg/middleware/maintenance"
	mwmetrics "github.com/nimburion/tutoradmin/pkg/middleware/metrics"
	"github.com/nimburion/tutoradmin/pkg/middleware/ratelimit"
	"github.com/nimburion/tutoradmin/pkg/middleware/recovery"
	"github.com/nimburion/tutoradmin/pkg/middleware/requestid"
	"github.com/nimburion/tutoradmin/pkg/middleware/requestsize"
	"github.com/nimburion/tutoradmin/pkg/middleware/securityheaders"
	"github.com/nimburion/tutoradmin/pkg/middleware/timeout"
	"github.com/nimburion/tutoradmin/pkg/middleware/tracing"
	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/observability/metrics"
	"github.com/nimburion/tutoradmin/pkg/pricing"
	"github.com/nimburion/tutoradmin/pkg/requeststate"
	"github.com/nimburion/tutoradmin/pkg/settings"
	"github.com/nimburion/tutoradmin/pkg/user"
)

// BasePath is the prefix of every API route.
const BasePath = "/api/v1"

// Services are the domain services the API serves.
type Services struct {
	Complaints *complaint.Service
	Users      *user.Service
	Plans      *pricing.Service
	Files      *knowledgebase.Service
	LLM        *llmconfig.Service
	Settings   *settings.Service
	Dashboard  *dashboard.Service
	Tracker    *requeststate.Tracker
}

// Options configure the middleware chain. Zero values disable the optional
// middleware.
type Options struct {
	Logger         logger.Logger
	HTTPMetrics    *metrics.HTTPMetrics
	TracerProvider trace.TracerProvider
	RateLimiter    ratelimit.RateLimiter
	CORS           cors.Config
	Compression    compression.Config
	MaxRequestSize int64
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine with the middleware chain and every route.
//
// Order matters: the request ID comes first so every later middleware logs
// it, and recovery wraps everything that can panic.
func NewRouter(svc Services, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestid.RequestID())
	r.Use(logging.Logging(opts.Logger))
	r.Use(recovery.Recovery(opts.Logger))
	if opts.HTTPMetrics != nil {
		r.Use(mwmetrics.Metrics(opts.HTTPMetrics))
	}
	r.Use(tracing.Tracing(tracing.Config{TracerProvider: opts.TracerProvider}))
	r.Use(securityheaders.Middleware(securityheaders.DefaultConfig()))
	r.Use(cors.Middleware(opts.CORS))
	if opts.Compression.Enabled {
		r.Use(compression.Middleware(opts.Compression))
	}
	if opts.RateLimiter != nil {
		r.Use(ratelimit.RateLimit(opts.RateLimiter, ratelimit.ClientIP))
	}
	r.Use(requestsize.Middleware(opts.MaxRequestSize))
	if opts.RequestTimeout > 0 {
		r.Use(timeout.Middleware(opts.RequestTimeout))
	}

	r.NoRoute(notFound)
	r.NoMethod(methodNotAllowed)

	v1 := r.Group(BasePath)
	if svc.Settings != nil {
		v1.Use(maintenance.Middleware(svc.Settings, BasePath+"/settings"))
	}

	if svc.Complaints != nil {
		(&complaintHandler{svc: svc.Complaints}).register(v1.Group("/complaints"))
	}
	if svc.Users != nil {
		(&userHandler{svc: svc.Users}).register(v1.Group("/users"))
	}
	if svc.Plans != nil {
		(&planHandler{svc: svc.Plans}).register(v1.Group("/plans"))
	}
	if svc.Files != nil {
		(&fileHandler{svc: svc.Files}).register(v1.Group("/knowledge-base/files"))
	}
	if svc.LLM != nil {
		(&llmHandler{svc: svc.LLM}).register(v1.Group("/llm"))
	}
	if svc.Settings != nil {
		(&settingsHandler{svc: svc.Settings}).register(v1.Group("/settings"))
	}
	if svc.Dashboard != nil {
		(&dashboardHandler{svc: svc.Dashboard}).register(v1.Group("/dashboard"))
	}
	if svc.Tracker != nil {
		v1.GET("/requests", requestStates(svc.Tracker))
	}
	return r
}
