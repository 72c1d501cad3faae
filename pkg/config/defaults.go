package config

import "time"

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxConnsPerIP:  100,
			MaxRequestSize: "10MB",
			Concurrency:    256000,
		},
		Specs: SpecsConfig{
			Dir:            "./specs",
			Include:        []string{"*.yaml", "*.yml", "*.json"},
			Exclude:        []string{},
			ValidateOnLoad: true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			Output:    "stdout",
			Sampling:  false,
			AddCaller: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/__metrics",
		},
		Middleware: MiddlewareConfig{
			RequestID: true,
			Recovery: RecoveryConfig{
				Enabled:  true,
				LogStack: true,
			},
			CORS: CORSConfig{
				Enabled:      false,
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"GET", "POST", "OPTIONS"},
				AllowHeaders: []string{"Content-Type", "Authorization"},
			},
			Timeout: TimeoutConfig{
				Enabled:  false,
				Duration: 10 * time.Second,
			},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		HotReload: HotReloadConfig{
			Enabled:       true,
			WatchConfig:   false,
			WatchSpecs:    true,
			DebounceDelay: 500 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			History: 100,
		},
	}
}
