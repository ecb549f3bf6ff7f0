// Package telemetry is a small, nil-safe facade over prometheus metrics,
// grounded on the metrics style of ghjramos-aistore, jordigilh-kubernaut,
// and marmos91-dittofs (all three register client_golang collectors behind
// a thin service-owned type rather than using the global default registry
// directly). Every method is safe to call on a nil *Registry so components
// can be unit tested without standing up a prometheus registry, the same
// way the teacher's logging.LeveledLogger fields tolerate nil.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every metric this repo's core exposes.
type Registry struct {
	reg *prometheus.Registry

	BufferBytesInUse  *prometheus.GaugeVec
	BufferSamples     *prometheus.GaugeVec
	BufferPushesTotal *prometheus.CounterVec
	BufferEvictions   *prometheus.CounterVec
	BufferBorrowed    *prometheus.GaugeVec

	CommandQueueDepth prometheus.Gauge
	CommandLatency    *prometheus.HistogramVec
	CommandsTotal     *prometheus.CounterVec
}

// New creates a Registry and registers all of its collectors against a
// fresh prometheus.Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	t := &Registry{
		reg: reg,
		BufferBytesInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vehicle_agent",
			Subsystem: "rawdata",
			Name:      "bytes_in_use",
			Help:      "Bytes currently held by the raw data buffer manager, per type.",
		}, []string{"type_id"}),
		BufferSamples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vehicle_agent",
			Subsystem: "rawdata",
			Name:      "samples_in_memory",
			Help:      "Frames currently in memory, per type.",
		}, []string{"type_id"}),
		BufferPushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vehicle_agent",
			Subsystem: "rawdata",
			Name:      "pushes_total",
			Help:      "Cumulative accepted pushes, per type.",
		}, []string{"type_id"}),
		BufferEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vehicle_agent",
			Subsystem: "rawdata",
			Name:      "evictions_total",
			Help:      "Cumulative frame evictions, per type and tier.",
		}, []string{"type_id", "tier"}),
		BufferBorrowed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vehicle_agent",
			Subsystem: "rawdata",
			Name:      "borrowed_frames",
			Help:      "Currently outstanding loaned frames, per type.",
		}, []string{"type_id"}),
		CommandQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vehicle_agent",
			Subsystem: "actuator",
			Name:      "command_queue_depth",
			Help:      "Pending commands in the actuator command manager's FIFO.",
		}),
		CommandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vehicle_agent",
			Subsystem: "actuator",
			Name:      "command_latency_seconds",
			Help:      "Time from dispatch to terminal response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"interface_id", "status"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vehicle_agent",
			Subsystem: "actuator",
			Name:      "commands_total",
			Help:      "Terminal commands, by interface and status.",
		}, []string{"interface_id", "status"}),
	}

	reg.MustRegister(
		t.BufferBytesInUse, t.BufferSamples, t.BufferPushesTotal,
		t.BufferEvictions, t.BufferBorrowed,
		t.CommandQueueDepth, t.CommandLatency, t.CommandsTotal,
	)
	return t
}

// Registerer exposes the underlying prometheus.Registry for an HTTP
// /metrics handler to serve.
func (t *Registry) Registerer() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.reg
}

// IncQueueDepth increments the in-queue gauge by 1. Nil-safe.
func (t *Registry) IncQueueDepth() {
	if t == nil {
		return
	}
	t.CommandQueueDepth.Inc()
}

// DecQueueDepth decrements the in-queue gauge by 1. Nil-safe.
func (t *Registry) DecQueueDepth() {
	if t == nil {
		return
	}
	t.CommandQueueDepth.Dec()
}

// ObserveCommandTerminal records a terminal command outcome's status and
// its dispatch-to-terminal latency. Nil-safe.
func (t *Registry) ObserveCommandTerminal(interfaceID, status string, latencySeconds float64) {
	if t == nil {
		return
	}
	t.CommandsTotal.WithLabelValues(interfaceID, status).Inc()
	t.CommandLatency.WithLabelValues(interfaceID, status).Observe(latencySeconds)
}
