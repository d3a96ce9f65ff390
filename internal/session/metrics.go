package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics controller counters, a nil *Metrics records nothing
// Metrics 控制端计数器，nil 时不记录
type Metrics struct {
	commands    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewMetrics registers the counters on reg, reusing ones already registered
// NewMetrics 在 reg 上注册计数器，已注册时复用
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		commands: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controller",
			Name:      "commands_total",
			Help:      "Transport commands issued, by kind.",
		}, []string{"kind"})),
		failures: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controller",
			Name:      "command_failures_total",
			Help:      "Transport commands that failed, by kind.",
		}, []string{"kind"})),
		transitions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controller",
			Name:      "status_transitions_total",
			Help:      "Connection status changes observed, by new status.",
		}, []string{"status"})),
	}
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) command(kind CommandKind) {
	if m != nil {
		m.commands.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) failure(kind CommandKind) {
	if m != nil {
		m.failures.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) transition(status string) {
	if m != nil {
		m.transitions.WithLabelValues(status).Inc()
	}
}
