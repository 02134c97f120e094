package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes every environment variable the loader reads.
const DefaultEnvPrefix = "TUTORADMIN"

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile string
	envPrefix  string
	flags      *pflag.FlagSet
}

// NewViperLoader creates a new ViperLoader. configFile may be empty.
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// WithFlags binds the known command-line flags present in flags. Flags set on
// the command line take precedence over every other source.
func (l *ViperLoader) WithFlags(flags *pflag.FlagSet) *ViperLoader {
	l.flags = flags
	return l
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"http-port":         "http.port",
	"management-port":   "management.port",
	"log-level":         "observability.log_level",
	"log-format":        "observability.log_format",
	"backend-latency":   "backend.latency",
	"seed-file":         "seed.file",
	"default-page-size": "pagination.default_page_size",
}

// Load loads configuration with precedence: flags > ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()
	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.prefix())
	if err := l.bindEnvVars(v); err != nil {
		return nil, err
	}
	if err := l.bindFlags(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKeys lists every configuration key bound to an environment variable. The
// variable name is the prefix plus the key upper-cased with dots turned into
// underscores, for example TUTORADMIN_HTTP_PORT.
var envKeys = []string{
	"service.name",
	"service.environment",
	"http.port",
	"http.read_timeout",
	"http.write_timeout",
	"http.idle_timeout",
	"http.request_timeout",
	"http.shutdown_timeout",
	"http.max_request_size",
	"management.enabled",
	"management.port",
	"management.read_timeout",
	"management.write_timeout",
	"observability.log_level",
	"observability.log_format",
	"observability.tracing_enabled",
	"observability.tracing_sample_rate",
	"observability.tracing_endpoint",
	"backend.latency",
	"pagination.default_page_size",
	"pagination.max_page_size",
	"rate_limit.enabled",
	"rate_limit.requests_per_second",
	"rate_limit.burst",
	"cors.enabled",
	"cors.max_age",
	"compression.enabled",
	"compression.min_size",
	"seed.enabled",
	"seed.file",
}

func (l *ViperLoader) bindEnvVars(v *viper.Viper) error {
	for _, key := range envKeys {
		if err := v.BindEnv(key, l.EnvName(key)); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func (l *ViperLoader) bindFlags(v *viper.Viper) error {
	if l.flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := l.flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func (l *ViperLoader) EnvName(key string) string {
	return l.prefix() + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (l *ViperLoader) prefix() string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return strings.ToUpper(prefix)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("service.name", cfg.Service.Name)
	v.SetDefault("service.environment", cfg.Service.Environment)

	v.SetDefault("http.port", cfg.HTTP.Port)
	v.SetDefault("http.read_timeout", cfg.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", cfg.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", cfg.HTTP.IdleTimeout)
	v.SetDefault("http.request_timeout", cfg.HTTP.RequestTimeout)
	v.SetDefault("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout)
	v.SetDefault("http.max_request_size", cfg.HTTP.MaxRequestSize)

	v.SetDefault("management.enabled", cfg.Management.Enabled)
	v.SetDefault("management.port", cfg.Management.Port)
	v.SetDefault("management.read_timeout", cfg.Management.ReadTimeout)
	v.SetDefault("management.write_timeout", cfg.Management.WriteTimeout)

	v.SetDefault("observability.log_level", cfg.Observability.LogLevel)
	v.SetDefault("observability.log_format", cfg.Observability.LogFormat)
	v.SetDefault("observability.tracing_enabled", cfg.Observability.TracingEnabled)
	v.SetDefault("observability.tracing_sample_rate", cfg.Observability.TracingSampleRate)
	v.SetDefault("observability.tracing_endpoint", cfg.Observability.TracingEndpoint)

	v.SetDefault("backend.latency", cfg.Backend.Latency)

	v.SetDefault("pagination.default_page_size", cfg.Pagination.DefaultPageSize)
	v.SetDefault("pagination.max_page_size", cfg.Pagination.MaxPageSize)

	v.SetDefault("rate_limit.enabled", cfg.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)

	v.SetDefault("cors.enabled", cfg.CORS.Enabled)
	v.SetDefault("cors.allow_origins", cfg.CORS.AllowOrigins)
	v.SetDefault("cors.max_age", cfg.CORS.MaxAge)

	v.SetDefault("compression.enabled", cfg.Compression.Enabled)
	v.SetDefault("compression.min_size", cfg.Compression.MinSize)

	v.SetDefault("seed.enabled", cfg.Seed.Enabled)
	v.SetDefault("seed.file", cfg.Seed.File)
}

// Validate validates the configuration and returns every problem found.
func (l *ViperLoader) Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Service.Name) == "" {
		errs = append(errs, errors.New("service.name is required"))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Observability.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid observability.log_level: %s (must be one of: %v)", cfg.Observability.LogLevel, validLogLevels))
	}
	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, cfg.Observability.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid observability.log_format: %s (must be one of: %v)", cfg.Observability.LogFormat, validLogFormats))
	}
	if cfg.Observability.TracingEnabled && cfg.Observability.TracingEndpoint == "" {
		errs = append(errs, errors.New("observability.tracing_endpoint is required when tracing is enabled"))
	}
	if cfg.Observability.TracingSampleRate < 0 || cfg.Observability.TracingSampleRate > 1 {
		errs = append(errs, fmt.Errorf("invalid observability.tracing_sample_rate: %v (must be between 0 and 1)", cfg.Observability.TracingSampleRate))
	}

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid http.port: %d (must be between 1 and 65535)", cfg.HTTP.Port))
	}
	if cfg.HTTP.RequestTimeout < 0 {
		errs = append(errs, errors.New("http.request_timeout cannot be negative"))
	}
	if cfg.HTTP.MaxRequestSize < 0 {
		errs = append(errs, errors.New("http.max_request_size cannot be negative"))
	}
	if cfg.Management.Enabled {
		if cfg.Management.Port <= 0 || cfg.Management.Port > 65535 {
			errs = append(errs, fmt.Errorf("invalid management.port: %d (must be between 1 and 65535)", cfg.Management.Port))
		}
		if cfg.HTTP.Port == cfg.Management.Port {
			errs = append(errs, errors.New("http.port and management.port must be different"))
		}
	}

	if cfg.Backend.Latency < 0 {
		errs = append(errs, errors.New("backend.latency cannot be negative"))
	}

	if cfg.Pagination.DefaultPageSize < 1 {
		errs = append(errs, fmt.Errorf("invalid pagination.default_page_size: %d (must be >= 1)", cfg.Pagination.DefaultPageSize))
	}
	if cfg.Pagination.MaxPageSize < cfg.Pagination.DefaultPageSize {
		errs = append(errs, fmt.Errorf("pagination.max_page_size (%d) must be >= pagination.default_page_size (%d)",
			cfg.Pagination.MaxPageSize, cfg.Pagination.DefaultPageSize))
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, errors.New("rate_limit.requests_per_second must be positive when rate limiting is enabled"))
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, errors.New("rate_limit.burst must be >= 1 when rate limiting is enabled"))
		}
	}

	if cfg.Compression.MinSize < 0 {
		errs = append(errs, errors.New("compression.min_size must not be negative"))
	}
	if cfg.CORS.Enabled && len(cfg.CORS.AllowOrigins) == 0 {
		errs = append(errs, errors.New("cors.allow_origins must list at least one origin when CORS is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
