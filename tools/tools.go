//go:build tools

// Package tools documents development tool dependencies.
// These tools run through `go run` with a pinned version and are not tracked in go.mod.
package tools

// Development tools:
//
// mockgen - gomock generator for the core ports (see internal/mocks/generate.go)
//   Run:     go generate ./internal/mocks
//   Version: go.uber.org/mock/mockgen@v0.6.0
//
// golangci-lint - static analysis
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@v2.1.6
