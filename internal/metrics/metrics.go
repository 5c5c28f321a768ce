// Package metrics exports session scoring as Prometheus collectors.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/session"
)

// Metrics holds the collectors for one process. Each instance owns its
// registry so several can coexist in tests.
//
// Metrics:
//   - forensiq_mistakes_total{task} - mistakes logged
//   - forensiq_deduction_points_total{task} - points deducted
//   - forensiq_successes_total{task} - successful task events
//   - forensiq_sessions_total{module,reason,result} - ended sessions
//   - forensiq_session_score_percent{module} - percentage of the last session
//   - forensiq_session_duration_seconds{module} - session run time
type Metrics struct {
	reg *prometheus.Registry

	Mistakes   *prometheus.CounterVec
	Deductions *prometheus.CounterVec
	Successes  *prometheus.CounterVec
	Sessions   *prometheus.CounterVec
	Score      *prometheus.GaugeVec
	Duration   *prometheus.HistogramVec
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Mistakes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forensiq_mistakes_total",
			Help: "Total number of mistakes logged",
		}, []string{"task"}),
		Deductions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forensiq_deduction_points_total",
			Help: "Total score points deducted",
		}, []string{"task"}),
		Successes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forensiq_successes_total",
			Help: "Total number of successful task events",
		}, []string{"task"}),
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forensiq_sessions_total",
			Help: "Total number of ended sessions",
		}, []string{"module", "reason", "result"}),
		Score: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forensiq_session_score_percent",
			Help: "Overall percentage of the most recent session",
		}, []string{"module"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forensiq_session_duration_seconds",
			Help:    "Session run time in seconds",
			Buckets: prometheus.LinearBuckets(60, 120, 10), // 1m to 19m
		}, []string{"module"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// MistakeLogged implements assessment.Observer.
func (m *Metrics) MistakeLogged(id assessment.TaskID, rec assessment.MistakeRecord, _ int) {
	m.Mistakes.WithLabelValues(string(id)).Inc()
	if rec.Deduction > 0 {
		m.Deductions.WithLabelValues(string(id)).Add(float64(rec.Deduction))
	}
}

// SuccessLogged implements assessment.Observer.
func (m *Metrics) SuccessLogged(id assessment.TaskID) {
	m.Successes.WithLabelValues(string(id)).Inc()
}

// SessionEnded records a finished session. It has the signature of a
// session end hook.
func (m *Metrics) SessionEnded(sum *session.Summary) {
	if sum == nil {
		return
	}
	result := "failed"
	if sum.Passed {
		result = "passed"
	}
	m.Sessions.WithLabelValues(sum.Module, sum.Reason, result).Inc()
	m.Score.WithLabelValues(sum.Module).Set(sum.Percentage)
	m.Duration.WithLabelValues(sum.Module).Observe(sum.Elapsed.Seconds())
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

var _ assessment.Observer = (*Metrics)(nil)
