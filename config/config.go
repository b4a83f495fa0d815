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
//   - auth.go: Callback and notification authentication
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server configuration
//   - services.go: Service modes
//   - targetfile.go: Target file export cycle
//   - storage.go: Content catalog and artifact mirror
type AppConfig struct {
	// IsDev controls development mode behavior (debug logging, relaxed auth).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel sets the minimum slog level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http,scheduler"`

	// Target file export configuration
	TargetFile TargetFileConfig `envPrefix:"TARGET_FILE_"`

	// Authentication for the provider callback and the outbound notification
	CallbackAuth     CallbackAuthConfig     `envPrefix:"CALLBACK_AUTH_"`
	NotificationAuth NotificationAuthConfig `envPrefix:"TARGET_FILE_NOTIFY_OAUTH_"`

	// Content catalog and artifact mirror
	Catalog       CatalogConfig       `envPrefix:"CONTENT_CATALOG_"`
	ArtifactStore ArtifactStoreConfig `envPrefix:"ARTIFACT_S3_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Redis.Sanitize()
	c.TargetFile.Sanitize()
	c.CallbackAuth.Sanitize()
	c.NotificationAuth.Sanitize()
	c.Catalog.Sanitize()
	c.ArtifactStore.Sanitize()
	c.Observability.Sanitize()

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsSchedulerEnabled returns true if the target file scheduler is enabled.
func (c *AppConfig) IsSchedulerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeScheduler]
}
