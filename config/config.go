package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and cache configuration
//   - services.go: Service mode and worker configuration
//   - delivery.go: Service platform and converter configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// StorageEncryptionKey protects registrant and recipient fields at rest.
	// Required outside development mode; a 64-char hex string is used as the
	// raw AES key, anything else is hashed to 32 bytes.
	StorageEncryptionKey string `env:"STORAGE_ENCRYPTION_KEY"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	// Services is a comma-delimited list of enabled services.
	// Valid values: check-worker, dispatch-worker, reaper
	Services string `env:"SERVICES" envDefault:"check-worker,dispatch-worker"`

	// Worker configuration
	CheckWorker    WorkerConfig `envPrefix:"CHECK_WORKER_"`
	DispatchWorker WorkerConfig `envPrefix:"DISPATCH_WORKER_"`

	// Reaper configuration
	Reaper ReaperConfig

	// External delivery configuration
	ServicePlatform ServicePlatformConfig `envPrefix:"SERVICE_PLATFORM_"`
	Converter       ConverterConfig       `envPrefix:"CONVERTER_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.CheckWorker.Sanitize()
	c.DispatchWorker.Sanitize()
	c.Reaper.Sanitize()
	c.Converter.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks the ENV environment variable as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		env := strings.ToLower(os.Getenv("ENV"))
		c.IsDev = env == "development" || env == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsCheckWorkerEnabled returns true if the registration check worker is enabled.
func (c *AppConfig) IsCheckWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeCheckWorker]
}

// IsDispatchWorkerEnabled returns true if the letter dispatch worker is enabled.
func (c *AppConfig) IsDispatchWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeDispatchWorker]
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReaper]
}
