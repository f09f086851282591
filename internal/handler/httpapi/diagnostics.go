package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talkio/realtime-client/internal/channel"
	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/history"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/outbox"
)

// DiagnosticsHandler exposes the local observability surface: liveness,
// component snapshots and Prometheus metrics. It never serves domain traffic.
type DiagnosticsHandler struct {
	channel channel.Channeler
	outbox  *outbox.Outbox
	history *history.Store
	metrics *metrics.Set
	logger  *slog.Logger
}

func NewDiagnosticsHandler(
	ch channel.Channeler,
	ob *outbox.Outbox,
	hist *history.Store,
	m *metrics.Set,
	logger *slog.Logger,
) *DiagnosticsHandler {
	return &DiagnosticsHandler{ch, ob, hist, m, logger}
}

// Routes mounts the diagnostics endpoints on a fresh chi router.
func (h *DiagnosticsHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Get("/stats", h.Stats)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		h.metrics.Registry,
		promhttp.HandlerOpts{},
	))

	return r
}

func (h *DiagnosticsHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *DiagnosticsHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	stats := model.Stats{
		Channel: h.channel.Stats(),
		Queue:   h.outbox.Stats(),
		History: h.history.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("STATS_ENCODE_FAILED", "err", err)
	}
}
