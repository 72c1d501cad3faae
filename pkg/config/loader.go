package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. SPECGRAPH_SERVER_PORT
const EnvPrefix = "SPECGRAPH"

// LoadFromFile loads configuration from a YAML file. Missing keys take
// their defaults and environment variables override file values.
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()

	// Set config file path
	v.SetConfigFile(configPath)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// Load returns the configuration at configPath, or the defaults with
// environment overrides when configPath is empty
func Load(configPath string) (*Config, error) {
	if configPath != "" {
		return LoadFromFile(configPath)
	}
	return unmarshal(newViper())
}

// LoadConfig is LoadFromFile followed by Validate
func LoadConfig(configPath string) (*Config, error) {
	cfg, err := LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// WriteToFile writes configuration to a YAML file
func WriteToFile(cfg *Config, filePath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults registers every key of DefaultConfig with viper, so that
// AutomaticEnv can override keys the file does not mention
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults - use time.Duration values for proper parsing
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_conns_per_ip", d.Server.MaxConnsPerIP)
	v.SetDefault("server.max_request_size", d.Server.MaxRequestSize)
	v.SetDefault("server.concurrency", d.Server.Concurrency)

	// Spec directory defaults
	v.SetDefault("specs.dir", d.Specs.Dir)
	v.SetDefault("specs.include", d.Specs.Include)
	v.SetDefault("specs.exclude", d.Specs.Exclude)
	v.SetDefault("specs.validate_on_load", d.Specs.ValidateOnLoad)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.sampling", d.Logging.Sampling)
	v.SetDefault("logging.add_caller", d.Logging.AddCaller)

	// Metrics defaults
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	// Middleware defaults
	v.SetDefault("middleware.request_id", d.Middleware.RequestID)
	v.SetDefault("middleware.recovery.enabled", d.Middleware.Recovery.Enabled)
	v.SetDefault("middleware.recovery.print_stack", d.Middleware.Recovery.PrintStack)
	v.SetDefault("middleware.recovery.log_stack", d.Middleware.Recovery.LogStack)
	v.SetDefault("middleware.cors.enabled", d.Middleware.CORS.Enabled)
	v.SetDefault("middleware.cors.allow_origins", d.Middleware.CORS.AllowOrigins)
	v.SetDefault("middleware.cors.allow_methods", d.Middleware.CORS.AllowMethods)
	v.SetDefault("middleware.cors.allow_headers", d.Middleware.CORS.AllowHeaders)
	v.SetDefault("middleware.cors.allow_credentials", d.Middleware.CORS.AllowCredentials)
	v.SetDefault("middleware.cors.max_age", d.Middleware.CORS.MaxAge)
	v.SetDefault("middleware.timeout.enabled", d.Middleware.Timeout.Enabled)
	v.SetDefault("middleware.timeout.duration", d.Middleware.Timeout.Duration)
	v.SetDefault("middleware.rate_limit.enabled", d.Middleware.RateLimit.Enabled)
	v.SetDefault("middleware.rate_limit.requests_per_second", d.Middleware.RateLimit.RequestsPerSecond)
	v.SetDefault("middleware.rate_limit.burst", d.Middleware.RateLimit.Burst)
	v.SetDefault("middleware.auth.enabled", d.Middleware.Auth.Enabled)
	v.SetDefault("middleware.auth.secret", d.Middleware.Auth.Secret)
	v.SetDefault("middleware.auth.issuer", d.Middleware.Auth.Issuer)

	// Hot reload defaults
	v.SetDefault("hotreload.enabled", d.HotReload.Enabled)
	v.SetDefault("hotreload.watch_config", d.HotReload.WatchConfig)
	v.SetDefault("hotreload.watch_specs", d.HotReload.WatchSpecs)
	v.SetDefault("hotreload.debounce_delay", d.HotReload.DebounceDelay)

	// Notification defaults
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.history", d.Notifications.History)
}
