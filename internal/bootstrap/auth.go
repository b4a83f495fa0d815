package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/obd-dialer/config"
	"github.com/target/obd-dialer/internal/adapters/oidc"
	httpx "github.com/target/obd-dialer/internal/http"
)

// CallbackAuthDeps contains configuration for the callback auth middleware.
type CallbackAuthDeps struct {
	Auth       config.CallbackAuthConfig
	HTTPClient *http.Client // Optional, used for issuer discovery
	Logger     *slog.Logger
}

// BuildCallbackAuth returns the middleware guarding the provider callback.
// Returns nil when callback auth is disabled. An issuer that cannot be discovered is an
// error: starting with an open callback when the operator asked for OIDC is worse than not starting.
func BuildCallbackAuth(ctx context.Context, deps CallbackAuthDeps) (func(http.Handler) http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !deps.Auth.Enabled {
		logger.WarnContext(ctx, "callback auth disabled; status endpoint relies on network controls")
		return nil, nil
	}

	opts := httpx.CallbackAuthOptions{Logger: logger}
	if deps.Auth.UsesOIDC() {
		verifier, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL:  deps.Auth.IssuerURL,
			ClientID:   deps.Auth.ClientID,
			HTTPClient: deps.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("build callback verifier: %w", err)
		}
		opts.Verifier = verifier
		logger.InfoContext(ctx, "callback auth enabled", "mode", "oidc", "issuer", deps.Auth.IssuerURL)
	} else {
		opts.StaticToken = deps.Auth.StaticToken
		logger.InfoContext(ctx, "callback auth enabled", "mode", "static-token")
	}

	return httpx.RequireCallbackAuth(opts), nil
}
