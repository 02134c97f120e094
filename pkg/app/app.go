// Package app assembles the stores, services and HTTP handler of tutoradmin
// from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/nimburion/tutoradmin/pkg/api"
	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/config"
	"github.com/nimburion/tutoradmin/pkg/dashboard"
	"github.com/nimburion/tutoradmin/pkg/health"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
	"github.com/nimburion/tutoradmin/pkg/llmconfig"
	"github.com/nimburion/tutoradmin/pkg/middleware/compression"
	"github.com/nimburion/tutoradmin/pkg/middleware/cors"
	"github.com/nimburion/tutoradmin/pkg/middleware/ratelimit"
	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/observability/metrics"
	"github.com/nimburion/tutoradmin/pkg/pricing"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/requeststate"
	"github.com/nimburion/tutoradmin/pkg/seed"
	"github.com/nimburion/tutoradmin/pkg/service"
	"github.com/nimburion/tutoradmin/pkg/settings"
	"github.com/nimburion/tutoradmin/pkg/user"
)

// Rate limiter buckets idle this long are dropped by the cleanup loop.
const (
	limiterCleanupInterval = time.Minute
	limiterIdleTTL         = 10 * time.Minute
)

// App holds every long-lived component of one tutoradmin process.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Registry
	Tracker *requeststate.Tracker
	Health  *health.Registry
	Feed    *dashboard.Feed

	Complaints *complaint.Service
	Users      *user.Service
	Plans      *pricing.Service
	Files      *knowledgebase.Service
	LLM        *llmconfig.Service
	Settings   *settings.Service
	Dashboard  *dashboard.Service

	limiter *ratelimit.TokenBucketLimiter
	summary seed.Summary
}

// Option customizes New.
type Option func(*options)

type options struct {
	metrics *metrics.Registry
	clock   func() time.Time
}

// WithMetrics records into reg instead of a fresh registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) { o.metrics = reg }
}

// WithClock sets the clock used by the stores, services and tracker.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// New builds the services from cfg and, when seeding is enabled, loads the
// fixtures. The activity feed subscribes to the stores before the fixtures
// are loaded, so seeded records show up as recent activity.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewRegistry()
	}

	var fixtures *seed.Fixtures
	if cfg.Seed.Enabled {
		fx, err := seed.Resolve(cfg.Seed.File)
		if err != nil {
			return nil, err
		}
		fixtures = fx
	}

	tracker := requeststate.NewTracker(
		requeststate.WithObserver(o.metrics.Requests),
		requeststate.WithClock(o.clock),
	)
	deps := service.Deps{
		Logger:          log,
		Tracker:         tracker,
		Metrics:         o.metrics.Domain,
		Latency:         cfg.Backend.Latency,
		Clock:           o.clock,
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	}
	storeOpts := []repository.Option{repository.WithClock(o.clock)}

	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: o.metrics,
		Tracker: tracker,
		Health:  health.NewRegistry(),
		Feed:    dashboard.NewFeed(dashboard.DefaultFeedCapacity),
	}

	var llmOpts []llmconfig.Option
	if fixtures != nil && len(fixtures.Models) > 0 {
		llmOpts = append(llmOpts, llmconfig.WithModels(fixtures.Models))
	}

	a.Complaints = complaint.NewService(complaint.NewStore(storeOpts...), deps)
	a.Users = user.NewService(user.NewStore(storeOpts...), deps)
	a.Plans = pricing.NewService(pricing.NewStore(storeOpts...), deps)
	a.Files = knowledgebase.NewService(knowledgebase.NewStore(storeOpts...), deps)
	a.LLM = llmconfig.NewService(llmconfig.NewStore(storeOpts...), deps, llmOpts...)
	a.Settings = settings.NewService(settings.NewStore(storeOpts...), deps)
	a.Dashboard = dashboard.NewService(dashboard.Sources{
		Users:      a.Users,
		Complaints: a.Complaints,
		Plans:      a.Plans,
		Files:      a.Files,
	}, a.Feed, deps)

	dashboard.Watch(a.Feed, a.Users.Store(), dashboard.UserSignups)
	dashboard.Watch(a.Feed, a.Complaints.Store(), dashboard.ComplaintsFiled)
	dashboard.Watch(a.Feed, a.Files.Store(), dashboard.DocumentsUploaded)
	dashboard.Watch(a.Feed, a.LLM.Store(), dashboard.LLMConfigured)
	dashboard.Watch(a.Feed, a.Plans.Store(), dashboard.PlansCreated)

	a.registerHealthChecks(fixtures != nil)

	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.NewTokenBucketLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	if fixtures != nil {
		summary, err := seed.Load(ctx, fixtures, seed.Stores{
			Users:      a.Users.Store(),
			Complaints: a.Complaints.Store(),
			Plans:      a.Plans.Store(),
			Files:      a.Files.Store(),
			LLMConfig:  a.LLM.Store(),
			Settings:   a.Settings.Store(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load seed data: %w", err)
		}
		a.summary = summary
		log.Info("seed data loaded", "source", seedSource(cfg.Seed.File), "records", map[string]int(summary))
	}

	return a, nil
}

func seedSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func (a *App) registerHealthChecks(seeded bool) {
	a.Health.Register(health.NewPingChecker("ping"))
	a.Health.Register(health.NewMaintenanceChecker(a.Settings))
	a.Health.Register(health.NewCollectionChecker(user.Entity, a.Users.Store(), seeded))
	a.Health.Register(health.NewCollectionChecker(complaint.Entity, a.Complaints.Store(), false))
	a.Health.Register(health.NewCollectionChecker(pricing.Entity, a.Plans.Store(), seeded))
	a.Health.Register(health.NewCollectionChecker(knowledgebase.Entity, a.Files.Store(), false))
}

// SeedSummary returns the number of seeded records per collection.
func (a *App) SeedSummary() seed.Summary {
	return a.summary
}

// Services returns the services exposed over HTTP.
func (a *App) Services() api.Services {
	return api.Services{
		Complaints: a.Complaints,
		Users:      a.Users,
		Plans:      a.Plans,
		Files:      a.Files,
		LLM:        a.LLM,
		Settings:   a.Settings,
		Dashboard:  a.Dashboard,
		Tracker:    a.Tracker,
	}
}

// Handler builds the public API router. tp may be nil, in which case the
// global tracer provider is used.
func (a *App) Handler(tp trace.TracerProvider) *gin.Engine {
	opts := api.Options{
		Logger:         a.Logger,
		HTTPMetrics:    a.Metrics.HTTP,
		TracerProvider: tp,
		MaxRequestSize: a.Config.HTTP.MaxRequestSize,
		RequestTimeout: a.Config.HTTP.RequestTimeout,
		CORS: cors.Config{
			Enabled:      a.Config.CORS.Enabled,
			AllowOrigins: a.Config.CORS.AllowOrigins,
			MaxAge:       a.Config.CORS.MaxAge,
		},
	}
	if a.Config.Compression.Enabled {
		opts.Compression = compression.DefaultConfig()
		opts.Compression.MinSize = a.Config.Compression.MinSize
	}
	if a.limiter != nil {
		opts.RateLimiter = a.limiter
	}
	return api.NewRouter(a.Services(), opts)
}

// Run starts the background loops of the app and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.limiter != nil {
		a.limiter.RunCleanup(ctx, limiterCleanupInterval, limiterIdleTTL)
		return nil
	}
	<-ctx.Done()
	return nil
}
