package core

import (
	"context"
	"io"
	"time"

	"github.com/target/obd-dialer/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// RecordSource provides paginated read access to the two collections an export traverses.
// Pages are 1-based; an empty page means the collection is exhausted. Ordering across pages
// is stable for the duration of one export.
type RecordSource interface {
	ListActive(ctx context.Context, page, pageSize int) ([]model.Enrollment, error)
	ListRetriesForDay(ctx context.Context, day model.DayOfTheWeek, page, pageSize int) ([]model.CallRetry, error)
}

// CallRetryRepository stores calls scheduled for retry.
type CallRetryRepository interface {
	Create(ctx context.Context, retry *model.CallRetry) (*model.CallRetry, error)
	ListForDay(ctx context.Context, day model.DayOfTheWeek, page, pageSize int) ([]model.CallRetry, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AuditRepository is the append-only file audit ledger.
type AuditRepository interface {
	Create(ctx context.Context, req *model.CreateAuditRecordRequest) (*model.AuditRecord, error)
	List(ctx context.Context, opts *model.AuditListOptions) ([]*model.AuditRecord, error)
}

// AlertRepository persists operational alerts.
type AlertRepository interface {
	Create(ctx context.Context, req *model.CreateAlertRequest) (*model.Alert, error)
	List(ctx context.Context, opts *model.AlertListOptions) ([]*model.Alert, error)
}

// ContentCatalog resolves the message file played for a pack week.
type ContentCatalog interface {
	MessageFile(pack string, week int) (string, error)
}

// ArtifactPublisher mirrors a finalized target file to external storage and returns its URI.
type ArtifactPublisher interface {
	Publish(ctx context.Context, name string, body io.Reader, size int64) (string, error)
}

// CycleLock serializes export cycles across replicas.
// TryAcquire returns acquired=false without error when another holder owns the lock.
type CycleLock interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
