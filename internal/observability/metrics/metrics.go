package metrics

import (
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/prometheus/client_golang/prometheus"
)

// NarrativeMetrics exposes counters/histograms for elicitation sessions.
type NarrativeMetrics struct {
	eventsTotal      *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	feedbackScore    *prometheus.HistogramVec
	persistTotal     *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
}

var _ narrative.Observer = (*NarrativeMetrics)(nil)

func NewNarrativeMetrics(reg prometheus.Registerer) *NarrativeMetrics {
	m := &NarrativeMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "narrative",
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Participant events handled, by outcome",
		}, []string{"event", "result"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "narrative",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Phase transitions",
		}, []string{"from", "to"}),
		feedbackScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "narrative",
			Subsystem: "session",
			Name:      "feedback_score",
			Help:      "Per-scenario feedback scores",
			Buckets:   []float64{0, 0.25, 0.5, 0.75, 1},
		}, []string{"feedback_type"}),
		persistTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "narrative",
			Subsystem: "package",
			Name:      "persist_total",
			Help:      "Scenario package writes",
		}, []string{"status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "narrative",
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.transitionsTotal, m.feedbackScore, m.persistTotal, m.requestLatency)
	return m
}

func (m *NarrativeMetrics) ObserveEvent(event narrative.EventType, result string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(event), result).Inc()
}

func (m *NarrativeMetrics) ObserveTransition(from, to narrative.Phase) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

func (m *NarrativeMetrics) ObserveFeedback(kind narrative.FeedbackKind, score float64) {
	if m == nil {
		return
	}
	m.feedbackScore.WithLabelValues(string(kind)).Observe(score)
}

func (m *NarrativeMetrics) ObservePersist(status string) {
	if m == nil {
		return
	}
	m.persistTotal.WithLabelValues(status).Inc()
}

func (m *NarrativeMetrics) ObserveRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, status).Observe(seconds)
}
