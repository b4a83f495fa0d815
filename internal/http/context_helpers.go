package httpx

import (
	"context"

	"github.com/target/obd-dialer/internal/adapters/oidc"
)

// callerKey is an unexported context key type to avoid collisions across packages.
type callerKey struct{}

// SetCallerInContext returns a child context carrying the authenticated callback caller.
func SetCallerInContext(ctx context.Context, caller oidc.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the authenticated caller and whether one was set.
func CallerFromContext(ctx context.Context) (oidc.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(oidc.Caller)
	return c, ok
}
