package metrics

import (
	"context"
	"time"

	"factposter/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const JobName = "factposter"

// Metrics собирает метрики одного запуска. Процесс короткоживущий,
// поэтому метрики не отдаются по HTTP, а отправляются в Pushgateway при выходе.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	facts        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	lastRun      prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factposter_runs_total",
			Help: "Runs by final status.",
		}, []string{"status"}),
		facts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factposter_facts_total",
			Help: "Facts obtained from the API, split by whether the fallback text was used.",
		}, []string{"kind"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factposter_publish_step_duration_seconds",
			Help:    "Duration of each publish step.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factposter_publish_step_failures_total",
			Help: "Publish step failures by step.",
		}, []string{"step"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factposter_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factposter_last_success_timestamp_seconds",
			Help: "Unix time of the last published post.",
		}),
	}
	m.registry.MustRegister(m.runs, m.facts, m.stepDuration, m.stepFailures, m.lastRun, m.lastSuccess)
	return m
}

// Registry нужен тестам и для Push.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStep реализует publisher.StepObserver.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		m.stepFailures.WithLabelValues(step).Inc()
	}
}

// ObserveRun учитывает итог запуска.
func (m *Metrics) ObserveRun(run models.Run) {
	m.runs.WithLabelValues(string(run.Status)).Inc()
	if run.Status != models.RunNoFact {
		kind := "informative"
		if run.Fact.Fallback {
			kind = "fallback"
		}
		m.facts.WithLabelValues(kind).Inc()
	}
	m.lastRun.Set(float64(run.FinishedAt.Unix()))
	if run.Status == models.RunPublished {
		m.lastSuccess.Set(float64(run.FinishedAt.Unix()))
	}
}

// Push отправляет все метрики в Pushgateway по адресу url под job factposter.
func (m *Metrics) Push(ctx context.Context, url string) error {
	return push.New(url, JobName).Gatherer(m.registry).PushContext(ctx)
}
