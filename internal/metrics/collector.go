// Package netsimmetrics exposes the simulator's Prometheus metrics:
// queue depth and drops, packet transmit/receive counters, transmitter
// FSM transitions, and SPF/forwarding-table activity.
//
// A struct of GaugeVec/CounterVec fields, NewCollector registering them
// against a Registerer, newMetrics building them unregistered for test
// isolation, labeled for devices and routers.
package netsimmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "netsim"
	subsystem = "sim"
)

// Label names for simulator metrics.
const (
	labelDevice    = "device"
	labelNode      = "node"
	labelFromState = "from_state"
	labelToState   = "to_state"
)

// Collector holds all simulator Prometheus metrics.
//
//   - QueueDepth tracks the current egress queue occupancy per device.
//   - PacketsTransmitted/PacketsReceived/PacketsDropped track traffic
//     volume per device.
//   - TransmitterTransitions records transmitter FSM state changes per
//     device, for alerting on devices stuck BUSY.
//   - SPFRuns counts SPF recomputations per node.
//   - RoutesInstalled tracks the current forwarding table size per node.
type Collector struct {
	QueueDepth *prometheus.GaugeVec

	PacketsTransmitted *prometheus.CounterVec
	PacketsReceived    *prometheus.CounterVec
	PacketsDropped     *prometheus.CounterVec

	TransmitterTransitions *prometheus.CounterVec

	SPFRuns         *prometheus.CounterVec
	RoutesInstalled *prometheus.GaugeVec
}

// NewCollector creates a Collector with all simulator metrics
// registered against reg. If reg is nil, prometheus.DefaultRegisterer
// is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.QueueDepth,
		c.PacketsTransmitted,
		c.PacketsReceived,
		c.PacketsDropped,
		c.TransmitterTransitions,
		c.SPFRuns,
		c.RoutesInstalled,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without
// registering them, so tests can construct a Collector without
// colliding on prometheus.DefaultRegisterer.
func newMetrics() *Collector {
	deviceLabels := []string{labelDevice}
	transitionLabels := []string{labelDevice, labelFromState, labelToState}
	nodeLabels := []string{labelNode}

	return &Collector{
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Current egress queue occupancy for a device.",
		}, deviceLabels),

		PacketsTransmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_transmitted_total",
			Help:      "Total packets transmitted by a device.",
		}, deviceLabels),

		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_received_total",
			Help:      "Total packets received by a device.",
		}, deviceLabels),

		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_dropped_total",
			Help:      "Total packets dropped due to egress queue overflow.",
		}, deviceLabels),

		TransmitterTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transmitter_transitions_total",
			Help:      "Total transmitter FSM state transitions for a device.",
		}, transitionLabels),

		SPFRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "spf_runs_total",
			Help:      "Total SPF recomputations performed for a node.",
		}, nodeLabels),

		RoutesInstalled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "routes_installed",
			Help:      "Current number of forwarding-table entries installed for a node.",
		}, nodeLabels),
	}
}

// SetQueueDepth records the current queue depth for device.
func (c *Collector) SetQueueDepth(device string, depth int) {
	c.QueueDepth.WithLabelValues(device).Set(float64(depth))
}

// IncPacketsTransmitted increments the transmitted packet counter for
// device.
func (c *Collector) IncPacketsTransmitted(device string) {
	c.PacketsTransmitted.WithLabelValues(device).Inc()
}

// IncPacketsReceived increments the received packet counter for
// device.
func (c *Collector) IncPacketsReceived(device string) {
	c.PacketsReceived.WithLabelValues(device).Inc()
}

// IncPacketsDropped increments the dropped packet counter for device.
func (c *Collector) IncPacketsDropped(device string) {
	c.PacketsDropped.WithLabelValues(device).Inc()
}

// RecordTransmitterTransition increments the transmitter FSM
// transition counter for device, labeled with its old and new states.
func (c *Collector) RecordTransmitterTransition(device, from, to string) {
	c.TransmitterTransitions.WithLabelValues(device, from, to).Inc()
}

// IncSPFRuns increments the SPF recomputation counter for node.
func (c *Collector) IncSPFRuns(node string) {
	c.SPFRuns.WithLabelValues(node).Inc()
}

// SetRoutesInstalled records the current forwarding table size for
// node.
func (c *Collector) SetRoutesInstalled(node string, count int) {
	c.RoutesInstalled.WithLabelValues(node).Set(float64(count))
}
