package config

import "strings"

// CallbackAuthConfig controls bearer verification on the provider callback endpoint.
//
// When Enabled is false the callback endpoint is open (network-level controls only).
// Enable it when the provider can present an OIDC ID token.
type CallbackAuthConfig struct {
	Enabled   bool   `env:"ENABLED"   envDefault:"false"`
	IssuerURL string `env:"ISSUER_URL"`
	ClientID  string `env:"CLIENT_ID"`
	// StaticToken is accepted as a shared secret when no issuer is configured.
	StaticToken string `env:"STATIC_TOKEN"`
}

// Sanitize trims values and disables verification that could never succeed.
func (c *CallbackAuthConfig) Sanitize() {
	c.IssuerURL = strings.TrimSpace(c.IssuerURL)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.StaticToken = strings.TrimSpace(c.StaticToken)
	if c.Enabled && c.IssuerURL == "" && c.StaticToken == "" {
		c.Enabled = false
	}
}

// UsesOIDC reports whether callbacks are verified against an OIDC issuer.
func (c *CallbackAuthConfig) UsesOIDC() bool {
	return c.Enabled && c.IssuerURL != ""
}

// NotificationAuthConfig configures OAuth2 client credentials for the outbound notification.
type NotificationAuthConfig struct {
	Enabled      bool     `env:"ENABLED"       envDefault:"false"`
	TokenURL     string   `env:"TOKEN_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES"        envSeparator:","`
}

// Sanitize trims values and disables the flow when credentials are incomplete.
func (c *NotificationAuthConfig) Sanitize() {
	c.TokenURL = strings.TrimSpace(c.TokenURL)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	scopes := c.Scopes[:0]
	for _, s := range c.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	c.Scopes = scopes
	if c.TokenURL == "" || c.ClientID == "" {
		c.Enabled = false
	}
}
