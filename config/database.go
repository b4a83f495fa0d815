package config

import (
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"obd"`
	Password string `env:"PASSWORD"                envDefault:"obd"`
	Name     string `env:"NAME"                    envDefault:"obd"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
//
// Redis is optional for this service: it backs the cross-replica cycle lock and
// the last-export cache. Leave Enabled=false for single-replica deployments.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	// LockEnabled guards export cycles with a distributed lock so only one replica writes a target file.
	LockEnabled bool          `env:"LOCK_ENABLED" envDefault:"false"`
	LockKey     string        `env:"LOCK_KEY"     envDefault:"obd:target_file:cycle"`
	LockExpiry  time.Duration `env:"LOCK_EXPIRY"  envDefault:"2h"`

	// LastExportTTL bounds how long the last export summary stays cached.
	LastExportTTL time.Duration `env:"LAST_EXPORT_TTL" envDefault:"72h"`
}

// Sanitize applies guardrails to Redis configuration values.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	r.LockKey = strings.TrimSpace(r.LockKey)
	if r.LockKey == "" {
		r.LockKey = "obd:target_file:cycle"
	}
	if r.LockExpiry < time.Minute {
		r.LockExpiry = time.Minute
	}
	if r.LastExportTTL <= 0 {
		r.LastExportTTL = 72 * time.Hour
	}
	if !r.Enabled {
		r.LockEnabled = false
	}
}
