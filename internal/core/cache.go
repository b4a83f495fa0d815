// Package core defines the ports of the OBD dialer and the small services that sit directly on them.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/target/obd-dialer/internal/domain/model"
)

const lastExportKey = "obd:target_file:last"

// LastExportService caches the summary of the most recent export for operators.
type LastExportService struct {
	cache CacheRepository
	ttl   time.Duration
}

// LastExportServiceOptions bundles dependencies for NewLastExportService.
type LastExportServiceOptions struct {
	Cache CacheRepository
	TTL   time.Duration
}

// NewLastExportService creates a new LastExportService.
func NewLastExportService(opts LastExportServiceOptions) (*LastExportService, error) {
	if opts.Cache == nil {
		return nil, errors.New("cache repository is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &LastExportService{cache: opts.Cache, ttl: ttl}, nil
}

// Save replaces the cached summary.
func (s *LastExportService) Save(ctx context.Context, last model.LastExport) error {
	body, err := json.Marshal(last)
	if err != nil {
		return fmt.Errorf("marshal last export: %w", err)
	}
	return s.cache.Set(ctx, lastExportKey, body, s.ttl)
}

// Get returns the cached summary, or nil when nothing is cached.
func (s *LastExportService) Get(ctx context.Context) (*model.LastExport, error) {
	body, err := s.cache.Get(ctx, lastExportKey)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var last model.LastExport
	if err := json.Unmarshal(body, &last); err != nil {
		return nil, fmt.Errorf("decode last export: %w", err)
	}
	return &last, nil
}

// Clear removes the cached summary.
func (s *LastExportService) Clear(ctx context.Context) error {
	_, err := s.cache.Delete(ctx, lastExportKey)
	return err
}
