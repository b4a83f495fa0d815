package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/obd-dialer/config"
)

func TestBuildCallbackAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("disabled returns nil middleware", func(t *testing.T) {
		mw, err := BuildCallbackAuth(context.Background(), CallbackAuthDeps{Logger: logger})
		require.NoError(t, err)
		assert.Nil(t, mw)
	})

	t.Run("static token", func(t *testing.T) {
		mw, err := BuildCallbackAuth(context.Background(), CallbackAuthDeps{
			Auth:   config.CallbackAuthConfig{Enabled: true, StaticToken: "s3cret"},
			Logger: logger,
		})
		require.NoError(t, err)
		require.NotNil(t, mw)

		h := mw(ok)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req = httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unreachable issuer fails startup", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := BuildCallbackAuth(context.Background(), CallbackAuthDeps{
			Auth:       config.CallbackAuthConfig{Enabled: true, IssuerURL: srv.URL, ClientID: "obd"},
			HTTPClient: srv.Client(),
			Logger:     logger,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "build callback verifier")
	})
}
