package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/target/obd-dialer/internal/domain"
	"github.com/target/obd-dialer/internal/domain/targetfile"
)

const (
	defaultTargetFileIntervalMs = int64(24 * time.Hour / time.Millisecond)
	defaultMaxQueryBlock        = 1000
	// MinTargetFileInterval is the shortest repeat interval the scheduler accepts.
	MinTargetFileInterval = time.Minute
)

// TargetFileConfig controls the daily target file export cycle.
type TargetFileConfig struct {
	// Time is the wall-clock fire time in H:m or HH:mm (24h).
	Time string `env:"TIME" envDefault:"0:0"`

	// MsInterval is the repeat interval in milliseconds (default one day).
	MsInterval int64 `env:"MS_INTERVAL" envDefault:"86400000"`

	// MaxQueryBlock is the page size used for each source query.
	MaxQueryBlock int `env:"MAX_QUERY_BLOCK" envDefault:"1000"`

	// Directory is resolved relative to the process owner's home directory.
	Directory string `env:"DIRECTORY" envDefault:"obd-target-files"`

	NotificationURL     string        `env:"NOTIFICATION_URL"`
	NotificationTimeout time.Duration `env:"NOTIFICATION_TIMEOUT" envDefault:"30s"`
	// NotifyBodyExpr is an optional JMESPath expression applied to the notification body.
	NotifyBodyExpr string `env:"NOTIFY_BODY_EXPR"`

	// IMIServiceID is the provider's service identifier written on every row.
	IMIServiceID string `env:"IMI_SERVICE_ID"`
	// CallFlowURL overrides the provider's default call flow; empty means provider default.
	CallFlowURL string `env:"CALL_FLOW_URL"`

	OverrunPolicy   domain.OverrunPolicy       `env:"OVERRUN_POLICY"   envDefault:"skip"`
	DigestAlgorithm targetfile.DigestAlgorithm `env:"DIGEST_ALGORITHM" envDefault:"md5"`
}

// Sanitize applies guardrails to target file configuration values.
func (c *TargetFileConfig) Sanitize() {
	c.Time = strings.TrimSpace(c.Time)
	if c.Time == "" {
		c.Time = "0:0"
	}
	if c.MsInterval <= 0 {
		c.MsInterval = defaultTargetFileIntervalMs
	}
	if c.MaxQueryBlock <= 0 {
		c.MaxQueryBlock = defaultMaxQueryBlock
	}
	c.Directory = strings.TrimSpace(c.Directory)
	c.NotificationURL = strings.TrimSpace(c.NotificationURL)
	if c.NotificationTimeout <= 0 {
		c.NotificationTimeout = 30 * time.Second
	}
	c.NotifyBodyExpr = strings.TrimSpace(c.NotifyBodyExpr)
	c.IMIServiceID = strings.TrimSpace(c.IMIServiceID)
	c.CallFlowURL = strings.TrimSpace(c.CallFlowURL)
	if c.OverrunPolicy == "" {
		c.OverrunPolicy = domain.OverrunPolicySkip
	}
	if c.DigestAlgorithm == "" {
		c.DigestAlgorithm = targetfile.DigestMD5
	}
}

// ParseTime returns the configured hour and minute.
func (c *TargetFileConfig) ParseTime() (int, int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(c.Time), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid target file time %q: expected H:m", c.Time)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid target file hour %q", hh)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid target file minute %q", mm)
	}
	return hour, minute, nil
}

// Interval returns the repeat interval as a duration.
func (c *TargetFileConfig) Interval() time.Duration {
	return time.Duration(c.MsInterval) * time.Millisecond
}

// ValidateInterval rejects a repeat interval shorter than MinTargetFileInterval.
func (c *TargetFileConfig) ValidateInterval() error {
	if c.Interval() < MinTargetFileInterval {
		return fmt.Errorf("invalid target file interval %dms: must be at least %s", c.MsInterval, MinTargetFileInterval)
	}
	return nil
}

// ResolveDirectory joins Directory onto the user's home directory.
// Absolute directories are returned unchanged.
func (c *TargetFileConfig) ResolveDirectory() (string, error) {
	if filepath.IsAbs(c.Directory) {
		return c.Directory, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, c.Directory), nil
}
