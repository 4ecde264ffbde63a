// Package metrics exposes application-level prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics counts workflow activity.
type Metrics struct {
	transitionsCommitted *prometheus.CounterVec
	transitionsRejected  *prometheus.CounterVec
	notificationsSent    prometheus.Counter
	notificationsFailed  prometheus.Counter
}

// Module provides the registry and instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(NewRegistry),
	fx.Provide(New),
)

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		transitionsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reinsadmin_transitions_committed_total",
			Help: "Committed workflow transitions by entity type and target state.",
		}, []string{"entity_type", "target_state"}),
		transitionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reinsadmin_transitions_rejected_total",
			Help: "Rejected workflow transitions by entity type and rejection kind.",
		}, []string{"entity_type", "reason"}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reinsadmin_notifications_sent_total",
			Help: "Notification emails sent.",
		}),
		notificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reinsadmin_notifications_failed_total",
			Help: "Notification emails that failed to send.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.transitionsCommitted,
		m.transitionsRejected,
		m.notificationsSent,
		m.notificationsFailed,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) TransitionCommitted(entityType, targetState string) {
	m.transitionsCommitted.WithLabelValues(entityType, targetState).Inc()
}

func (m *Metrics) TransitionRejected(entityType, reason string) {
	m.transitionsRejected.WithLabelValues(entityType, reason).Inc()
}

func (m *Metrics) NotificationSent() {
	m.notificationsSent.Inc()
}

func (m *Metrics) NotificationFailed() {
	m.notificationsFailed.Inc()
}
