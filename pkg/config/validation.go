package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	
	var sb strings.Builder
	sb.WriteString(ve[0].Error())
	if len(ve) > 1 {
		sb.WriteString(fmt.Sprintf(" (and %d more errors)", len(ve)-1))
	}
	return sb.String()
}

// Validate validates the complete configuration
func Validate(cfg *Config) error {
	var errors ValidationErrors

	// Validate server configuration
	if errs := validateServer(&cfg.Server); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	// Validate logging configuration
	if errs := validateLogging(&cfg.Logging); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	// Validate spec directory configuration
	if errs := validateSpecs(&cfg.Specs); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	// Validate metrics configuration
	if errs := validateMetrics(&cfg.Metrics); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	// Validate middleware configuration
	if errs := validateMiddleware(&cfg.Middleware); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	// Validate hot reload configuration
	if errs := validateHotReload(&cfg.HotReload); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	// Validate notifications configuration
	if errs := validateNotifications(&cfg.Notifications); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func validateServer(cfg *ServerConfig) ValidationErrors {
	var errors ValidationErrors

	// Validate port
	if cfg.Port < 1 || cfg.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Value:   cfg.Port,
			Message: "must be between 1 and 65535",
		})
	}

	// Validate host
	if cfg.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "server.host",
			Value:   cfg.Host,
			Message: "cannot be empty",
		})
	} else if net.ParseIP(cfg.Host) == nil && cfg.Host != "localhost" {
		// Try to resolve as hostname
		if _, err := net.LookupHost(cfg.Host); err != nil {
			errors = append(errors, ValidationError{
				Field:   "server.host",
				Value:   cfg.Host,
				Message: "must be a valid IP address or hostname",
			})
		}
	}

	// Validate timeouts
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.read_timeout",
			Value:   cfg.ReadTimeout,
			Message: "must be greater than 0",
		})
	}

	if cfg.WriteTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.write_timeout",
			Value:   cfg.WriteTimeout,
			Message: "must be greater than 0",
		})
	}

	// Validate max request size
	if cfg.MaxRequestSize != "" {
		if _, err := ParseSize(cfg.MaxRequestSize); err != nil {
			errors = append(errors, ValidationError{
				Field:   "server.max_request_size",
				Value:   cfg.MaxRequestSize,
				Message: "invalid size format (use formats like '10MB', '1GB')",
			})
		}
	}

	// Validate concurrency
	if cfg.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.concurrency",
			Value:   cfg.Concurrency,
			Message: "must be greater than 0",
		})
	}

	return errors
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errors ValidationErrors

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}
	levelValid := false
	for _, level := range validLevels {
		if cfg.Level == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   cfg.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		})
	}

	// Validate format
	if cfg.Format != "json" && cfg.Format != "console" {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   cfg.Format,
			Message: "must be either 'json' or 'console'",
		})
	}

	return errors
}

func validateSpecs(cfg *SpecsConfig) ValidationErrors {
	var errors ValidationErrors

	if cfg.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "specs.dir",
			Value:   cfg.Dir,
			Message: "cannot be empty",
		})
	}

	if len(cfg.Include) == 0 {
		errors = append(errors, ValidationError{
			Field:   "specs.include",
			Value:   cfg.Include,
			Message: "must contain at least one pattern",
		})
	}

	for i, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("specs.include[%d]", i),
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}

	for i, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("specs.exclude[%d]", i),
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}

	return errors
}

func validateMetrics(cfg *MetricsConfig) ValidationErrors {
	var errors ValidationErrors

	if cfg.Enabled {
		// Validate metrics path
		if cfg.Path == "" || !strings.HasPrefix(cfg.Path, "/") {
			errors = append(errors, ValidationError{
				Field:   "metrics.path",
				Value:   cfg.Path,
				Message: "must start with '/'",
			})
		}
	}

	return errors
}

func validateMiddleware(cfg *MiddlewareConfig) ValidationErrors {
	var errors ValidationErrors

	if cfg.Timeout.Enabled && cfg.Timeout.Duration <= 0 {
		errors = append(errors, ValidationError{
			Field:   "middleware.timeout.duration",
			Value:   cfg.Timeout.Duration,
			Message: "must be greater than 0",
		})
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errors = append(errors, ValidationError{
				Field:   "middleware.rate_limit.requests_per_second",
				Value:   cfg.RateLimit.RequestsPerSecond,
				Message: "must be greater than 0",
			})
		}
		if cfg.RateLimit.Burst < 1 {
			errors = append(errors, ValidationError{
				Field:   "middleware.rate_limit.burst",
				Value:   cfg.RateLimit.Burst,
				Message: "must be greater than 0",
			})
		}
	}

	if cfg.Auth.Enabled && len(cfg.Auth.Secret) < 16 {
		errors = append(errors, ValidationError{
			Field:   "middleware.auth.secret",
			Value:   "<redacted>",
			Message: "must be at least 16 characters when auth is enabled",
		})
	}

	return errors
}

func validateHotReload(cfg *HotReloadConfig) ValidationErrors {
	var errors ValidationErrors

	if cfg.Enabled && cfg.DebounceDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "hotreload.debounce_delay",
			Value:   cfg.DebounceDelay,
			Message: "cannot be negative",
		})
	}

	return errors
}

func validateNotifications(cfg *NotificationsConfig) ValidationErrors {
	var errors ValidationErrors

	if cfg.Enabled && cfg.History < 1 {
		errors = append(errors, ValidationError{
			Field:   "notifications.history",
			Value:   cfg.History,
			Message: "must be greater than 0",
		})
	}

	return errors
}

// ParseSize parses a size string like "10MB" and returns bytes. An empty
// string is 0, which fasthttp treats as its default limit.
func ParseSize(size string) (int64, error) {
	size = strings.TrimSpace(strings.ToUpper(size))
	if size == "" {
		return 0, nil
	}

	// longest suffix first so "MB" is not taken for "B"
	units := []struct {
		suffix     string
		multiplier int64
	}{
		{"TB", 1024 * 1024 * 1024 * 1024},
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	for _, unit := range units {
		if strings.HasSuffix(size, unit.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(size, unit.suffix))
			num, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return 0, err
			}
			return int64(num * float64(unit.multiplier)), nil
		}
	}

	// Try parsing as plain number (assume bytes)
	num, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return 0, errors.New("invalid size format")
	}

	return num, nil
}
