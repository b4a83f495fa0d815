package httpx

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterServices holds everything the HTTP router serves.
type RouterServices struct {
	TargetFile   *TargetFileHandlers
	HealthChecks []HealthCheck
	// Metrics is served at MetricsPath when non-nil.
	Metrics     prometheus.Gatherer
	MetricsPath string
	// CallbackAuth guards the provider callback (optional).
	CallbackAuth func(http.Handler) http.Handler
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	if services.Metrics != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, promhttp.HandlerFor(services.Metrics, promhttp.HandlerOpts{}))
	}

	if services.TargetFile != nil {
		if services.TargetFile.Outcomes == nil {
			return nil, errNoOutcomeRecorder
		}
		registerTargetFileRoutes(mux, services.TargetFile, services.CallbackAuth)
	}

	return Recover(logger)(Logging(logger)(mux)), nil
}

func registerTargetFileRoutes(mux *http.ServeMux, h *TargetFileHandlers, auth func(http.Handler) http.Handler) {
	var status http.Handler = http.HandlerFunc(h.ProcessedStatus)
	if auth != nil {
		status = auth(status)
	}
	mux.Handle("POST /api/obd/target-file/status", status)
	mux.Handle("GET /api/obd/target-file/last", http.HandlerFunc(h.LastExport))
}
