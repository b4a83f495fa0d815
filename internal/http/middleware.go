package httpx

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/target/obd-dialer/internal/adapters/oidc"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CallerVerifier validates a bearer token presented by the provider.
type CallerVerifier interface {
	Verify(ctx context.Context, rawToken string) (oidc.Caller, error)
}

// CallbackAuthOptions configures RequireCallbackAuth. Verifier wins when both are set.
type CallbackAuthOptions struct {
	Verifier    CallerVerifier
	StaticToken string
	Logger      *slog.Logger
}

// staticCaller is attached to requests authenticated with the shared token.
var staticCaller = oidc.Caller{Subject: "static-token"}

// RequireCallbackAuth returns a middleware that demands a bearer token on the provider callback.
// With neither a verifier nor a static token configured it passes requests through.
func RequireCallbackAuth(opts CallbackAuthOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Verifier == nil && opts.StaticToken == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}

			var caller oidc.Caller
			if opts.Verifier != nil {
				c, err := opts.Verifier.Verify(r.Context(), token)
				if err != nil {
					logger.WarnContext(r.Context(), "callback token rejected", "error", err)
					writeUnauthorized(w)
					return
				}
				caller = c
			} else {
				if subtle.ConstantTimeCompare([]byte(token), []byte(opts.StaticToken)) != 1 {
					writeUnauthorized(w)
					return
				}
				caller = staticCaller
			}

			next.ServeHTTP(w, r.WithContext(SetCallerInContext(r.Context(), caller)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="obd-dialer"`)
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}
