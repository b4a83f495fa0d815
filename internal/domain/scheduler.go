// Package domain contains domain-level policies shared by the export cycle and its configuration.
package domain

import (
	"fmt"
	"strings"
)

// OverrunPolicy defines how to handle a fire while a previous cycle is still running.
type OverrunPolicy string

const (
	// OverrunPolicySkip drops the fire; the next one is computed from the clock as usual.
	OverrunPolicySkip OverrunPolicy = "skip"

	// OverrunPolicyQueue holds the fire until the running cycle finishes, then runs it.
	// Cycles never overlap under either policy.
	OverrunPolicyQueue OverrunPolicy = "queue"
)

// Valid reports whether p is a supported policy.
func (p OverrunPolicy) Valid() bool {
	return p == OverrunPolicySkip || p == OverrunPolicyQueue
}

// MarshalText implements encoding.TextMarshaler.
func (p OverrunPolicy) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// UnmarshalText implements encoding.TextUnmarshaler to parse OverrunPolicy from env or text.
func (p *OverrunPolicy) UnmarshalText(text []byte) error {
	v := OverrunPolicy(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid OverrunPolicy: %q", v)
	}
	*p = v
	return nil
}
