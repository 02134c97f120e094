package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nimburion/tutoradmin/pkg/app"
	"github.com/nimburion/tutoradmin/pkg/config"
	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/version"
)

// LifecycleHook is a named startup, shutdown or background action.
type LifecycleHook struct {
	Name string
	Fn   func(context.Context) error
}

// RunHTTPServersOptions defines inputs for running the HTTP servers.
type RunHTTPServersOptions struct {
	Logger logger.Logger

	StartupHooks        []LifecycleHook
	ShutdownHooks       []LifecycleHook
	ShutdownHookTimeout time.Duration

	// Background hooks run next to the servers until they stop. A background
	// hook returning an error stops the servers.
	Background []LifecycleHook
}

// HTTPServers groups the public and management servers. Management is nil
// when disabled.
type HTTPServers struct {
	Public     *Server
	Management *Server
}

// BuildHTTPServers creates the servers configured in cfg.
func BuildHTTPServers(cfg *config.Config, public, management http.Handler, log logger.Logger) *HTTPServers {
	servers := &HTTPServers{Public: NewPublicServer(cfg.HTTP, public, log)}
	if cfg.Management.Enabled && management != nil {
		servers.Management = NewManagementServer(cfg.Management, management, log)
	}
	return servers
}

// RunHTTPServers runs the startup hooks, then the servers and background
// hooks until ctx is cancelled or one of them fails, then the shutdown hooks.
func RunHTTPServers(ctx context.Context, servers *HTTPServers, opts *RunHTTPServersOptions) error {
	if servers == nil || servers.Public == nil {
		return errors.New("servers and public server are required")
	}
	if opts == nil || opts.Logger == nil {
		return errors.New("logger is required")
	}

	if err := runStartupHooks(ctx, opts); err != nil {
		return err
	}
	defer func() {
		if err := runShutdownHooks(opts); err != nil {
			opts.Logger.Error("shutdown hooks completed with errors", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return servers.Public.Start(gctx) })
	if servers.Management != nil {
		g.Go(func() error { return servers.Management.Start(gctx) })
	}
	for _, hook := range opts.Background {
		hook := hook
		if hook.Fn == nil {
			continue
		}
		name := hookName(hook)
		g.Go(func() error {
			if err := hook.Fn(gctx); err != nil {
				return fmt.Errorf("background task %q failed: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunHTTPServersWithSignals runs the servers until SIGINT or SIGTERM.
func RunHTTPServersWithSignals(servers *HTTPServers, opts *RunHTTPServersOptions, signals ...os.Signal) error {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()
	return RunHTTPServers(ctx, servers, opts)
}

// Serve builds the application from cfg and serves it until ctx is
// cancelled.
func Serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	info := version.Current(cfg.Service.Name)
	log.Info("application version metadata",
		"service", info.Service,
		"version", info.Version,
		"commit", info.Commit,
		"build_time", info.BuildTime,
		"environment", normalizeEnvironment(cfg.Service.Environment),
	)

	tracerProvider, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    info.Service,
		ServiceVersion: info.Version,
		Environment:    normalizeEnvironment(cfg.Service.Environment),
		Endpoint:       cfg.Observability.TracingEndpoint,
		SampleRate:     cfg.Observability.TracingSampleRate,
		Enabled:        cfg.Observability.TracingEnabled,
	})
	if err != nil {
		return fmt.Errorf("initialize tracing provider: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	servers := BuildHTTPServers(cfg,
		a.Handler(nil),
		ManagementHandler(log, a.Health, a.Metrics, info),
		log,
	)
	return RunHTTPServers(ctx, servers, &RunHTTPServersOptions{
		Logger: log,
		Background: []LifecycleHook{
			{Name: "rate-limit-cleanup", Fn: a.Run},
		},
		ShutdownHooks: []LifecycleHook{
			{Name: "tracing", Fn: tracerProvider.Shutdown},
		},
	})
}

func normalizeEnvironment(env string) string {
	trimmed := strings.TrimSpace(env)
	if trimmed == "" {
		return version.Unknown
	}
	return trimmed
}

func hookName(hook LifecycleHook) string {
	if name := strings.TrimSpace(hook.Name); name != "" {
		return name
	}
	return "unnamed"
}

func runStartupHooks(ctx context.Context, opts *RunHTTPServersOptions) error {
	for _, hook := range opts.StartupHooks {
		if hook.Fn == nil {
			continue
		}
		name := hookName(hook)
		opts.Logger.Info("startup hook start", "hook", name)
		if err := hook.Fn(ctx); err != nil {
			opts.Logger.Error("startup hook failed", "hook", name, "error", err)
			return fmt.Errorf("startup hook %q failed: %w", name, err)
		}
		opts.Logger.Info("startup hook complete", "hook", name)
	}
	return nil
}

func runShutdownHooks(opts *RunHTTPServersOptions) error {
	timeout := opts.ShutdownHookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var errs []error
	for _, hook := range opts.ShutdownHooks {
		if hook.Fn == nil {
			continue
		}
		name := hookName(hook)
		opts.Logger.Info("shutdown hook start", "hook", name)

		hookCtx, cancel := context.WithTimeout(context.Background(), timeout)
		err := hook.Fn(hookCtx)
		cancel()

		if err != nil {
			opts.Logger.Error("shutdown hook failed", "hook", name, "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook %q failed: %w", name, err))
			continue
		}
		opts.Logger.Info("shutdown hook complete", "hook", name)
	}
	return errors.Join(errs...)
}
