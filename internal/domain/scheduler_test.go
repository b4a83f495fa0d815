package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/obd-dialer/internal/domain"
)

func TestOverrunPolicy_UnmarshalText(t *testing.T) {
	var p domain.OverrunPolicy
	require.NoError(t, p.UnmarshalText([]byte(" Queue ")))
	require.Equal(t, domain.OverrunPolicyQueue, p)

	require.NoError(t, p.UnmarshalText([]byte("skip")))
	require.Equal(t, domain.OverrunPolicySkip, p)
}

func TestOverrunPolicy_UnmarshalTextInvalid(t *testing.T) {
	var p domain.OverrunPolicy
	require.Error(t, p.UnmarshalText([]byte("reschedule")))
	require.Empty(t, p)
}

func TestOverrunPolicy_MarshalText(t *testing.T) {
	text, err := domain.OverrunPolicySkip.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "skip", string(text))
}
