package config

import (
	"time"
)

// Config represents the complete configuration structure
type Config struct {
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Specs         SpecsConfig         `yaml:"specs" mapstructure:"specs"`
	Logging       LoggingConfig       `yaml:"logging" mapstructure:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" mapstructure:"metrics"`
	Middleware    MiddlewareConfig    `yaml:"middleware" mapstructure:"middleware"`
	HotReload     HotReloadConfig     `yaml:"hotreload" mapstructure:"hotreload"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	Host           string        `yaml:"host" mapstructure:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxConnsPerIP  int           `yaml:"max_conns_per_ip" mapstructure:"max_conns_per_ip"`
	MaxRequestSize string        `yaml:"max_request_size" mapstructure:"max_request_size"`
	Concurrency    int           `yaml:"concurrency" mapstructure:"concurrency"`
}

// SpecsConfig selects the documents to serve
type SpecsConfig struct {
	Dir            string   `yaml:"dir" mapstructure:"dir"`
	Include        []string `yaml:"include" mapstructure:"include"` // doublestar patterns relative to dir
	Exclude        []string `yaml:"exclude" mapstructure:"exclude"`
	ValidateOnLoad bool     `yaml:"validate_on_load" mapstructure:"validate_on_load"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"` // json or console
	Output    string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
	Sampling  bool   `yaml:"sampling" mapstructure:"sampling"`
	AddCaller bool   `yaml:"add_caller" mapstructure:"add_caller"`
}

// MetricsConfig holds request metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// MiddlewareConfig holds middleware configuration
type MiddlewareConfig struct {
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
	Timeout   TimeoutConfig   `yaml:"timeout" mapstructure:"timeout"`
	Recovery  RecoveryConfig  `yaml:"recovery" mapstructure:"recovery"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	RequestID bool            `yaml:"request_id" mapstructure:"request_id"` // Simple flag for request ID middleware
}

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" mapstructure:"enabled"`
	AllowOrigins     []string `yaml:"allow_origins" mapstructure:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods" mapstructure:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers" mapstructure:"allow_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	MaxAge           int      `yaml:"max_age" mapstructure:"max_age"`
}

// TimeoutConfig holds timeout middleware configuration
type TimeoutConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
}

// RecoveryConfig holds recovery middleware configuration
type RecoveryConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	PrintStack bool `yaml:"print_stack" mapstructure:"print_stack"`
	LogStack   bool `yaml:"log_stack" mapstructure:"log_stack"`
}

// RateLimitConfig holds rate limit middleware configuration. The limit is
// applied per client IP.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// AuthConfig holds bearer token middleware configuration
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"` // HMAC key for HS256 tokens
	Issuer  string `yaml:"issuer" mapstructure:"issuer"` // optional expected iss claim
}

// HotReloadConfig holds hot reload configuration
type HotReloadConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	WatchConfig   bool          `yaml:"watch_config" mapstructure:"watch_config"`
	WatchSpecs    bool          `yaml:"watch_specs" mapstructure:"watch_specs"`
	DebounceDelay time.Duration `yaml:"debounce_delay" mapstructure:"debounce_delay"`
}

// NotificationsConfig holds change notification configuration
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	History int  `yaml:"history" mapstructure:"history"` // notifications kept for GET /notifications
}
