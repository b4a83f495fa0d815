// Package mocks provides mock implementations of the core ports for testing the OBD dialer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	source := mocks.NewMockRecordSource(ctrl)
//	source.EXPECT().ListActive(gomock.Any(), 1, 100).Return(enrollments, nil)
package mocks

// Record source ports: ListActive, ListRetriesForDay; Create, ListForDay, Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=record_source_mock.go github.com/target/obd-dialer/internal/core RecordSource
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=call_retry_repository_mock.go github.com/target/obd-dialer/internal/core CallRetryRepository

// Ledger and alert ports: Create, List.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=audit_repository_mock.go github.com/target/obd-dialer/internal/core AuditRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=alert_repository_mock.go github.com/target/obd-dialer/internal/core AlertRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=alerter_mock.go github.com/target/obd-dialer/internal/core Alerter

// Export collaborators: MessageFile, Publish, TryAcquire.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=content_catalog_mock.go github.com/target/obd-dialer/internal/core ContentCatalog
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=artifact_publisher_mock.go github.com/target/obd-dialer/internal/core ArtifactPublisher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cycle_lock_mock.go github.com/target/obd-dialer/internal/core CycleLock

// Cache port: Set, Get, Delete, Health.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/obd-dialer/internal/core CacheRepository
