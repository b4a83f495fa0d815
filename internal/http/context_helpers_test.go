package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/obd-dialer/internal/adapters/oidc"
)

func TestCallerContextRoundTrip(t *testing.T) {
	_, ok := CallerFromContext(context.Background())
	assert.False(t, ok)

	ctx := SetCallerInContext(context.Background(), oidc.Caller{Subject: "imi", ClientID: "imi-client"})
	got, ok := CallerFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "imi", got.Subject)
}
