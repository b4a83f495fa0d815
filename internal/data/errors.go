package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrInvalidPage     = errors.New("page must be >= 1")
	ErrInvalidPageSize = errors.New("page size must be >= 1")
	ErrRequestRequired = errors.New("request is required")
)

// pageOffset converts a 1-based page into a row offset.
func pageOffset(page, pageSize int) (int, error) {
	if page < 1 {
		return 0, ErrInvalidPage
	}
	if pageSize < 1 {
		return 0, ErrInvalidPageSize
	}
	return (page - 1) * pageSize, nil
}

// normalizePagination clamps listing limits for operator-facing queries.
func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
