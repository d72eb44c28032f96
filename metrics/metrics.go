package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	SessionsActive prometheus.Gauge
	AnswersSaved   *prometheus.CounterVec
	SaveFailures   *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quizbot_sessions_active",
				Help: "Number of users with a live questionnaire session",
			},
		),
		AnswersSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizbot_answers_saved_total",
				Help: "Finished sessions handed to the answer sink successfully",
			},
			[]string{"questionnaire"},
		),
		SaveFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizbot_answers_save_failures_total",
				Help: "Finished sessions the answer sink failed to persist",
			},
			[]string{"questionnaire"},
		),
	}
}

// NewRegistry creates a registry with the Go runtime collectors and the bot metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewMetrics(reg)
}

// HandlerFor returns the /metrics handler for reg
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// SetSessions records the number of live sessions
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordSave counts one sink result for a questionnaire
func (m *Metrics) RecordSave(questionnaire string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SaveFailures.WithLabelValues(questionnaire).Inc()
		return
	}
	m.AnswersSaved.WithLabelValues(questionnaire).Inc()
}
