package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesDemuxed counts inbound frames successfully validated and
	// routed to an endpoint (§4.4 demultiplex).
	FramesDemuxed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "frames_demuxed_total",
			Help:      "Total number of inbound frames routed to an endpoint",
		},
		[]string{"interface", "ethertype"},
	)

	// FramesDropped counts inbound frames dropped at any validation layer.
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "frames_dropped_total",
			Help:      "Total number of inbound frames dropped",
		},
		[]string{"interface", "reason"},
	)

	// FramesSent counts outbound frames successfully sent.
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "frames_sent_total",
			Help:      "Total number of outbound frames sent",
		},
		[]string{"interface", "type"},
	)

	// EndpointsCreated counts pre-auth endpoints created by scan results.
	EndpointsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "endpoints_created_total",
			Help:      "Total number of pre-auth endpoints created",
		},
		[]string{"interface"},
	)

	// EndpointsRemoved counts endpoints freed by the deferred-removal sweep.
	EndpointsRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "endpoints_removed_total",
			Help:      "Total number of pre-auth endpoints freed",
		},
		[]string{"interface"},
	)

	// ScansScheduled counts scan timers armed by the orchestrator.
	ScansScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "scans_scheduled_total",
			Help:      "Total number of scans scheduled",
		},
		[]string{"interface", "trigger"},
	)

	// ControllerReports counts report_status calls made to the controller.
	ControllerReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eapolsupd",
			Name:      "controller_reports_total",
			Help:      "Total number of report_status calls to the controller",
		},
		[]string{"interface", "state"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent; safe to call multiple times.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesDemuxed)
		prometheus.DefaultRegisterer.Register(FramesDropped)
		prometheus.DefaultRegisterer.Register(FramesSent)
		prometheus.DefaultRegisterer.Register(EndpointsCreated)
		prometheus.DefaultRegisterer.Register(EndpointsRemoved)
		prometheus.DefaultRegisterer.Register(ScansScheduled)
		prometheus.DefaultRegisterer.Register(ControllerReports)
	})
}
