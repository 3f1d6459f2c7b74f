package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	challengeapp "github.com/louisbranch/challenge.space/internal/services/challenge/app"
)

const outcomeFailed = "failed"

// Metrics counts scheduler work.
type Metrics struct {
	evaluations  *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	ongoing      prometheus.Gauge
}

// NewMetrics registers the scheduler collectors with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challenge_space",
			Subsystem: "scheduler",
			Name:      "evaluations_total",
			Help:      "Phase evaluations by outcome.",
		}, []string{"outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challenge_space",
			Subsystem: "scheduler",
			Name:      "alerts_total",
			Help:      "Evaluation failures that are not retried, by error code.",
		}, []string{"code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challenge_space",
			Subsystem: "scheduler",
			Name:      "transitions_total",
			Help:      "Phase transitions by target phase.",
		}, []string{"phase"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "challenge_space",
			Subsystem: "scheduler",
			Name:      "passes_total",
			Help:      "Evaluation passes by result.",
		}, []string{"result"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "challenge_space",
			Subsystem: "scheduler",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one evaluation pass.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ongoing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "challenge_space",
			Subsystem: "scheduler",
			Name:      "ongoing_challenges",
			Help:      "Challenges listed as on-going by the last pass.",
		}),
	}
	for _, c := range []prometheus.Collector{m.evaluations, m.alerts, m.transitions, m.passes, m.passDuration, m.ongoing} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, outcome := range []challengeapp.Outcome{
		challengeapp.OutcomeIdle, challengeapp.OutcomeAdvanced,
		challengeapp.OutcomeBusy, challengeapp.OutcomeTerminal,
	} {
		m.evaluations.WithLabelValues(string(outcome))
	}
	m.evaluations.WithLabelValues(outcomeFailed)
	return m, nil
}

func (m *Metrics) observeStep(step challengeapp.Step, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.evaluations.WithLabelValues(outcomeFailed).Inc()
		return
	}
	m.evaluations.WithLabelValues(string(step.Outcome)).Inc()
	if step.Outcome == challengeapp.OutcomeAdvanced {
		m.transitions.WithLabelValues(string(step.To)).Inc()
	}
}

func (m *Metrics) alert(code apperrors.Code) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(string(code)).Inc()
}

func (m *Metrics) observePass(report PassReport, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.passes.WithLabelValues(result).Inc()
	m.passDuration.Observe(report.Duration.Seconds())
	if err == nil {
		m.ongoing.Set(float64(report.Challenges))
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

