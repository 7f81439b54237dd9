// Package metrics is the prometheus counter/gauge surface for the core.
// One Metrics value is constructed per engine instance and registered
// into a caller-supplied registry, so multiple engines (e.g. in a
// conformance test harness running several stations in one process) do
// not collide on the global default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veloce-go/geonet/coreerr"
)

// Metrics is the counter/gauge set shared by every core component.
type Metrics struct {
	PacketsDropped    *prometheus.CounterVec // by coreerr.Kind
	PacketsForwarded  prometheus.Counter
	PacketsDelivered  prometheus.Counter
	LocationTableSize prometheus.Gauge
	DccQueueDepth     *prometheus.GaugeVec // by access category
	DccTOn            prometheus.Gauge
	SignOperations    prometheus.Counter
	VerifyFailures    *prometheus.CounterVec // by coreerr.Kind
}

// New builds and registers a Metrics set under reg. reg may be nil, in
// which case metrics are created but not exported (useful in tests).
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geonet",
			Name:      "packets_dropped_total",
			Help:      "Packets dropped by the forwarding engine, by reason.",
		}, []string{"kind"}),
		PacketsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geonet",
			Name:      "packets_forwarded_total",
			Help:      "Packets re-transmitted by the forwarding engine.",
		}),
		PacketsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geonet",
			Name:      "packets_delivered_total",
			Help:      "Packets delivered to an upper-layer socket.",
		}),
		LocationTableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geonet",
			Name:      "location_table_entries",
			Help:      "Current number of location table entries.",
		}),
		DccQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "geonet",
			Name:      "dcc_queue_depth_bytes",
			Help:      "Bytes queued per DCC access category.",
		}, []string{"category"}),
		DccTOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geonet",
			Name:      "dcc_t_on_seconds",
			Help:      "Current Limeric transmit interval.",
		}),
		SignOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geonet",
			Name:      "security_sign_total",
			Help:      "Outgoing packets signed.",
		}),
		VerifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geonet",
			Name:      "security_verify_failures_total",
			Help:      "Verification failures, by reason.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.PacketsDropped, m.PacketsForwarded, m.PacketsDelivered,
			m.LocationTableSize, m.DccQueueDepth, m.DccTOn,
			m.SignOperations, m.VerifyFailures,
		)
	}

	return m
}

// DropKind increments the drop counter for the given error kind.
func (m *Metrics) DropKind(k coreerr.Kind) {
	if m == nil {
		return
	}
	m.PacketsDropped.WithLabelValues(k.String()).Inc()
}

// VerifyFailKind increments the verify-failure counter for the given kind.
func (m *Metrics) VerifyFailKind(k coreerr.Kind) {
	if m == nil {
		return
	}
	m.VerifyFailures.WithLabelValues(k.String()).Inc()
}
