// Package metrics defines the subsystem's Prometheus collectors. One Set is
// constructed per service instance so tests never share a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Set struct {
	Registry *prometheus.Registry

	Reconnects         prometheus.Counter
	ConnectFailures    prometheus.Counter
	FramesIn           *prometheus.CounterVec
	FramesOut          prometheus.Counter
	QueueDepth         prometheus.Gauge
	QueueFlushed       prometheus.Counter
	AlertsSurfaced     *prometheus.CounterVec
	AlertsSuppressed   *prometheus.CounterVec
	SoundsPlayed       prometheus.Counter
	HandlerPanics      prometheus.Counter
	PersistenceErrors  prometheus.Counter
	SettingsFetchFails prometheus.Counter
}

func New() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		Registry: reg,
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_reconnects_total",
			Help: "Successful channel (re)connections.",
		}),
		ConnectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_connect_failures_total",
			Help: "Failed connection attempts.",
		}),
		FramesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_frames_in_total",
			Help: "Inbound frames by event topic.",
		}, []string{"event"}),
		FramesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_frames_out_total",
			Help: "Outbound frames written to the channel.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_outbox_pending",
			Help: "Messages waiting in the outbound delivery queue.",
		}),
		QueueFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_outbox_flushed_total",
			Help: "Queued messages re-emitted after reconnect.",
		}),
		AlertsSurfaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_alerts_surfaced_total",
			Help: "Notifications surfaced, by category.",
		}, []string{"category"}),
		AlertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_alerts_suppressed_total",
			Help: "Notifications suppressed, by reason.",
		}, []string{"reason"}),
		SoundsPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_alert_sounds_total",
			Help: "Alert sounds allowed by the rate limiter.",
		}),
		HandlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_handler_panics_total",
			Help: "Recovered panics in bus handlers.",
		}),
		PersistenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_persistence_errors_total",
			Help: "Best-effort device store failures.",
		}),
		SettingsFetchFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_settings_fetch_failures_total",
			Help: "Settings API reads that fell back to the last snapshot.",
		}),
	}
	reg.MustRegister(
		s.Reconnects, s.ConnectFailures, s.FramesIn, s.FramesOut,
		s.QueueDepth, s.QueueFlushed, s.AlertsSurfaced, s.AlertsSuppressed,
		s.SoundsPlayed, s.HandlerPanics, s.PersistenceErrors, s.SettingsFetchFails,
	)
	return s
}
