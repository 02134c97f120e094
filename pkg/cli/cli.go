// Package cli builds the tutoradmin command line: serving the API,
// inspecting configuration and querying the seeded collections.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nimburion/tutoradmin/pkg/config"
	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/server"
	"github.com/nimburion/tutoradmin/pkg/version"
)

// Options configure the root command.
type Options struct {
	Name        string
	Description string
	ConfigPath  string
	EnvPrefix   string

	// RunServer starts the servers. Defaults to server.Serve.
	RunServer func(ctx context.Context, cfg *config.Config, log logger.Logger) error
}

// NewRootCommand creates the CLI with serve, version, config and query
// subcommands. Running the root command without a subcommand serves.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "tutoradmin"
	}
	if opts.Description == "" {
		opts.Description = "Admin backend for the AI tutoring platform"
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = config.DefaultEnvPrefix
	}
	if opts.RunServer == nil {
		opts.RunServer = server.Serve
	}

	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgPath string
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config-file", "c", opts.ConfigPath, "config file path")
	registerConfigFlags(flags)

	loadConfig := func(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
		return LoadConfigAndLogger(cfgPath, opts.EnvPrefix, cmd.Flags(), cmd.ErrOrStderr())
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the public API and management servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.RunServer(ctx, cfg, log)
		},
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE

	rootCmd.AddCommand(newVersionCommand(opts.Name))
	rootCmd.AddCommand(newConfigCommand(func(cmd *cobra.Command) (*config.Config, error) {
		return config.NewViperLoader(cfgPath, opts.EnvPrefix).WithFlags(cmd.Flags()).Load()
	}))
	rootCmd.AddCommand(newQueryCommand(loadConfig))

	return rootCmd
}

// registerConfigFlags registers the flags the config loader binds.
func registerConfigFlags(flags *pflag.FlagSet) {
	defaults := config.DefaultConfig()
	flags.Int("http-port", defaults.HTTP.Port, "public API port")
	flags.Int("management-port", defaults.Management.Port, "management server port")
	flags.String("log-level", defaults.Observability.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Observability.LogFormat, "log format (json, text)")
	flags.Duration("backend-latency", defaults.Backend.Latency, "simulated backend latency per call")
	flags.String("seed-file", defaults.Seed.File, "fixture file replacing the embedded seed data")
	flags.Int("default-page-size", defaults.Pagination.DefaultPageSize, "page size used when a request omits one")
}

func newVersionCommand(name string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Current(name)
			w := cmd.OutOrStdout()
			if output != "text" {
				return writeOutput(w, output, info)
			}
			fmt.Fprintf(w, "Service:    %s\n", info.Service)
			fmt.Fprintf(w, "Version:    %s\n", info.Version)
			fmt.Fprintf(w, "Commit:     %s\n", info.Commit)
			fmt.Fprintf(w, "Build Time: %s\n", info.BuildTime)
			fmt.Fprintf(w, "Go:         %s\n", info.GoVersion)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, yaml, json)")
	return cmd
}

func newConfigCommand(load func(cmd *cobra.Command) (*config.Config, error)) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	})

	var output string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, cfg)
		},
	}
	showCmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (yaml, json)")
	configCmd.AddCommand(showCmd)

	return configCmd
}

// LoadConfigAndLogger loads configuration and creates the logger it
// describes, writing logs to logOutput.
func LoadConfigAndLogger(cfgPath, envPrefix string, flags *pflag.FlagSet, logOutput io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.NewViperLoader(cfgPath, envPrefix).WithFlags(flags).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewZapLogger(logger.Config{
		Level:   logger.LogLevel(cfg.Observability.LogLevel),
		Format:  logger.LogFormat(cfg.Observability.LogFormat),
		Service: cfg.Service.Name,
		Output:  logOutput,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	if strings.EqualFold(cfg.Observability.LogLevel, string(logger.DebugLevel)) {
		log.Debug("effective configuration", "config", fmt.Sprintf("%+v", cfg))
	}
	return cfg, log, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Execute runs the command and exits with status 1 on error.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
