package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the tank gauges, set by Collector from each published snapshot, and the counters of the update path.
type Metrics struct {
	level         *prometheus.GaugeVec
	state         *prometheus.GaugeVec
	invalid       *prometheus.GaugeVec
	updates       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	actions       *prometheus.CounterVec
}

var _ prometheus.Collector = &Metrics{}

func NewMetrics() *Metrics {
	return &Metrics{
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName("tank", "level", "percentage"),
			Help: "Fill percentage of the tank",
		}, []string{"tank", "label"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName("tank", "", "state"),
			Help: "Alarm state of the tank. Always 1. Label state specifies the state",
		}, []string{"tank", "state"}),
		invalid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName("tank", "", "invalid_measurement"),
			Help: "1 if the last measurement of the tank's sensor was invalid",
		}, []string{"tank"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName("tank", "", "updates_total"),
			Help: "Number of processed sensor messages",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName("tank", "", "notifications_total"),
			Help: "Number of notifications sent, per event and channel",
		}, []string{"event", "channel", "result"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName("tank", "", "program_actions_total"),
			Help: "Number of scheduler requests, per operation",
		}, []string{"operation", "result"}),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.level.Describe(ch)
	m.state.Describe(ch)
	m.invalid.Describe(ch)
	m.updates.Describe(ch)
	m.notifications.Describe(ch)
	m.actions.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.level.Collect(ch)
	m.state.Collect(ch)
	m.invalid.Collect(ch)
	m.updates.Collect(ch)
	m.notifications.Collect(ch)
	m.actions.Collect(ch)
}

// Update counts a processed sensor message. Metrics may be nil.
func (m *Metrics) Update(result string) {
	if m != nil {
		m.updates.WithLabelValues(result).Inc()
	}
}

// Notification counts a delivery attempt.
func (m *Metrics) Notification(event, channel, result string) {
	if m != nil {
		m.notifications.WithLabelValues(event, channel, result).Inc()
	}
}

// Action counts a scheduler request.
func (m *Metrics) Action(operation, result string) {
	if m != nil {
		m.actions.WithLabelValues(operation, result).Inc()
	}
}
