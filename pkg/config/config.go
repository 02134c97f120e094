// Package config defines the tutoradmin configuration tree and loads it from
// defaults, an optional file, environment variables and command-line flags.
package config

import "time"

// Config is the root configuration structure
type Config struct {
	Service       ServiceConfig       `mapstructure:"service" yaml:"service"`
	HTTP          HTTPConfig          `mapstructure:"http" yaml:"http"`
	Management    ManagementConfig    `mapstructure:"management" yaml:"management"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
	Backend       BackendConfig       `mapstructure:"backend" yaml:"backend"`
	Pagination    PaginationConfig    `mapstructure:"pagination" yaml:"pagination"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit" yaml:"rate_limit"`
	CORS          CORSConfig          `mapstructure:"cors" yaml:"cors"`
	Compression   CompressionConfig   `mapstructure:"compression" yaml:"compression"`
	Seed          SeedConfig          `mapstructure:"seed" yaml:"seed"`
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestSize  int64         `mapstructure:"max_request_size" yaml:"max_request_size"`
}

// ManagementConfig configures the management server
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// ObservabilityConfig configures logging and tracing.
type ObservabilityConfig struct {
	LogLevel          string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string  `mapstructure:"log_format" yaml:"log_format"` // json, text
	TracingEnabled    bool    `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate" yaml:"tracing_sample_rate"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint" yaml:"tracing_endpoint"`
}

// BackendConfig configures the simulated backend the services sit on.
// Every service call waits Latency before touching its store.
type BackendConfig struct {
	Latency time.Duration `mapstructure:"latency" yaml:"latency"`
}

// PaginationConfig bounds list requests. Requests that omit page_size get
// DefaultPageSize; larger values than MaxPageSize are rejected.
type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size" yaml:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size" yaml:"max_page_size"`
}

// RateLimitConfig configures the per-client token bucket on the public API.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// CORSConfig lists the browser origins allowed to call the public API.
type CORSConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	AllowOrigins []string      `mapstructure:"allow_origins" yaml:"allow_origins"`
	MaxAge       time.Duration `mapstructure:"max_age" yaml:"max_age"`
}

// CompressionConfig controls gzip/brotli compression of API responses.
// Bodies shorter than MinSize are sent uncompressed.
type CompressionConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	MinSize int  `mapstructure:"min_size" yaml:"min_size"`
}

// SeedConfig controls the fixtures loaded at startup. File overrides the
// embedded fixtures when set.
type SeedConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	File    string `mapstructure:"file" yaml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "tutoradmin",
			Environment: "development",
		},
		HTTP: HTTPConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  10 << 20,
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingSampleRate: 0.1,
		},
		Backend: BackendConfig{
			Latency: 300 * time.Millisecond,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			MaxAge:       12 * time.Hour,
		},
		Compression: CompressionConfig{
			Enabled: true,
			MinSize: 1024,
		},
		Seed: SeedConfig{
			Enabled: true,
		},
	}
}
