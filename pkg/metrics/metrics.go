// Package metrics holds the Prometheus collectors shared by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Ticks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sphere_animator_ticks_total",
			Help: "Total number of animator ticks",
		},
		[]string{"figure"},
	)

	FramesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sphere_animator_frames_skipped_total",
			Help: "Ticks whose frame did not change and was not emitted",
		},
		[]string{"figure"},
	)

	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sphere_events_total",
			Help: "Figure events handled, by kind",
		},
		[]string{"kind"},
	)

	MouthHeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sphere_mouth_height",
			Help: "Current mouth aperture height in pixels",
		},
		[]string{"figure"},
	)

	SmoothedAmplitude = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sphere_smoothed_amplitude",
			Help: "Current smoothed amplitude in [0,1]",
		},
		[]string{"figure"},
	)

	ActiveFigures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sphere_active_figures",
			Help: "Number of registered figures",
		},
	)

	HubClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sphere_hub_clients",
			Help: "Number of connected viewer sockets",
		},
	)

	DroppedBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sphere_hub_dropped_broadcasts_total",
			Help: "Broadcasts dropped because the hub queue was full",
		},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "sphere_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route", "status"},
	)
)

// ForgetFigure drops the per-figure series of a removed figure.
func ForgetFigure(id string) {
	Ticks.DeleteLabelValues(id)
	FramesSkipped.DeleteLabelValues(id)
	MouthHeight.DeleteLabelValues(id)
	SmoothedAmplitude.DeleteLabelValues(id)
}
