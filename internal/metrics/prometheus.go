// Package metrics records dashboard activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements the session service recorder on top of a registry.
type Prometheus struct {
	sessionsStarted prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	transfers       *prometheus.CounterVec
	loans           *prometheus.CounterVec
	accountsClosed  prometheus.Counter
}

// New registers the dashboard metrics in reg.
func New(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		sessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bankist_sessions_started_total",
				Help: "Total number of successful logins",
			},
		),
		sessionsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankist_sessions_ended_total",
				Help: "Total number of ended sessions by reason",
			},
			[]string{"reason"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bankist_active_sessions",
				Help: "Whether a session is currently active",
			},
		),
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankist_transfers_total",
				Help: "Total number of transfer attempts by status",
			},
			[]string{"status"},
		),
		loans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankist_loans_total",
				Help: "Total number of loan events by status",
			},
			[]string{"status"},
		),
		accountsClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bankist_accounts_closed_total",
				Help: "Total number of closed accounts",
			},
		),
	}
}

// SessionStarted records a successful login.
func (p *Prometheus) SessionStarted() {
	p.sessionsStarted.Inc()
	p.activeSessions.Set(1)
}

// SessionEnded records the end of a session.
func (p *Prometheus) SessionEnded(reason string) {
	p.sessionsEnded.WithLabelValues(reason).Inc()
	p.activeSessions.Set(0)
}

// Transfer records a transfer attempt.
func (p *Prometheus) Transfer(status string) {
	p.transfers.WithLabelValues(status).Inc()
}

// Loan records a loan request outcome or credit.
func (p *Prometheus) Loan(status string) {
	p.loans.WithLabelValues(status).Inc()
}

// AccountClosed records a closed account.
func (p *Prometheus) AccountClosed() {
	p.accountsClosed.Inc()
}
