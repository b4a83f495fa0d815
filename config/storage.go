package config

import (
	"strings"
	"time"
)

// CatalogConfig locates the content catalog (pack -> week -> message file).
type CatalogConfig struct {
	Path string `env:"PATH" envDefault:"config/content_catalog.yaml"`
	// Watch reloads the catalog when the file changes.
	Watch    bool          `env:"WATCH"    envDefault:"true"`
	Debounce time.Duration `env:"DEBOUNCE" envDefault:"500ms"`
}

// Sanitize applies guardrails to catalog configuration values.
func (c *CatalogConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Debounce <= 0 {
		c.Debounce = 500 * time.Millisecond
	}
}

// ArtifactStoreConfig configures the optional S3-compatible mirror for finalized target files.
type ArtifactStoreConfig struct {
	Enabled   bool   `env:"ENABLED"    envDefault:"false"`
	Endpoint  string `env:"ENDPOINT"`
	Bucket    string `env:"BUCKET"`
	Prefix    string `env:"PREFIX"     envDefault:"target-files/"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Region    string `env:"REGION"`
	UseSSL    bool   `env:"USE_SSL"    envDefault:"true"`
}

// Sanitize trims values and disables the mirror when it is not fully configured.
func (c *ArtifactStoreConfig) Sanitize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Prefix = strings.TrimLeft(strings.TrimSpace(c.Prefix), "/")
	if c.Endpoint == "" || c.Bucket == "" {
		c.Enabled = false
	}
}
