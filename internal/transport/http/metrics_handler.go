package http

import (
	"log/slog"
	"net/http"

	apierrors "sigmon/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter     http.Handler
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. exporter is nil when
// metrics are disabled.
func NewMetricsHandler(exporter http.Handler, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		exporter:     exporter,
		logger:       logger.With(slog.String("handler", "metrics")),
		errorHandler: errorHandler,
	}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusServiceUnavailable,
			apierrors.CodeServiceUnavailable, "Metrics are disabled", "set SIGMON_TELEMETRY_METRICS_ENABLED=true"))
		return
	}
	h.exporter.ServeHTTP(w, r)
}
