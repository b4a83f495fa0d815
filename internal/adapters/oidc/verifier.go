// Package oidc verifies bearer tokens presented by the IVR provider on its status callback.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

// ErrTokenRequired is returned when an empty bearer token is presented.
var ErrTokenRequired = errors.New("bearer token is required")

// VerifierConfig holds configuration for the callback token verifier.
type VerifierConfig struct {
	IssuerURL  string
	ClientID   string
	HTTPClient *http.Client // Optional, defaults to a 30s client
}

// Caller identifies the authenticated party behind a callback.
type Caller struct {
	Subject  string
	ClientID string
}

// Verifier validates ID tokens against the issuer's published keys.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewVerifier discovers the issuer and returns a Verifier bound to its key set.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	return newVerifier(op.Verifier(&gooidc.Config{ClientID: cfg.ClientID})), nil
}

func newVerifier(v *gooidc.IDTokenVerifier) *Verifier {
	return &Verifier{verifier: v}
}

type callerClaims struct {
	Sub      string `json:"sub"`
	ClientID string `json:"client_id"`
	Azp      string `json:"azp"`
}

// Verify checks signature, issuer, audience and expiry of rawToken.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (Caller, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Caller{}, ErrTokenRequired
	}

	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Caller{}, fmt.Errorf("verify token: %w", err)
	}
	var claims callerClaims
	if claimsErr := tok.Claims(&claims); claimsErr != nil {
		return Caller{}, fmt.Errorf("parse token claims: %w", claimsErr)
	}
	return Caller{
		Subject:  claims.Sub,
		ClientID: firstNonEmpty(claims.ClientID, claims.Azp),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
