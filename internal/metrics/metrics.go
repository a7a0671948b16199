// Package metrics exposes Prometheus instrumentation for the healing
// pipeline and serves it over HTTP as a lifecycle component.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BusStats is the subset of the event bus surfaced as metrics.
type BusStats interface {
	SubscriberCount() int
	DroppedTotal() uint64
}

// Metrics holds the operator's Prometheus collectors.
type Metrics struct {
	FaultsDetected     *prometheus.CounterVec
	IsolationsActive   prometheus.Gauge
	IsolationsTotal    *prometheus.CounterVec
	HealingPhaseTotal  *prometheus.CounterVec
	HealingOutcomes    *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMErrorsTotal     *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
	KnowledgeEntries   *prometheus.CounterVec
	ProactiveWarnings  *prometheus.CounterVec

	reg prometheus.Registerer
}

// NewMetrics creates and registers the operator collectors. The registerer
// parameter allows flexible registration (global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	faultsDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_faults_detected_total",
		Help: "Total number of faults detected by the containment sweep",
	}, []string{"namespace", "reason"})

	isolationsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recist_isolations_active",
		Help: "Number of pods currently isolated by a network policy",
	})

	isolationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_isolations_total",
		Help: "Total number of pod isolations by strategy",
	}, []string{"strategy"})

	healingPhaseTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_healing_phase_transitions_total",
		Help: "Total number of healing event transitions into each phase",
	}, []string{"phase"})

	healingOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_healing_outcomes_total",
		Help: "Total number of completed healing events by outcome",
	}, []string{"outcome"})

	llmRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recist_llm_request_duration_seconds",
		Help:    "LLM call latency by provider and operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	llmErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_llm_errors_total",
		Help: "Total number of failed LLM calls by provider and operation",
	}, []string{"provider", "operation"})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_eventbus_published_total",
		Help: "Total number of events published to the agent bus by type",
	}, []string{"event_type"})

	knowledgeEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_knowledge_entries_total",
		Help: "Total number of knowledge entries recorded by namespace",
	}, []string{"namespace"})

	proactiveWarnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recist_proactive_warnings_total",
		Help: "Total number of proactive warnings published by error type",
	}, []string{"error_type"})

	reg.MustRegister(faultsDetected)
	reg.MustRegister(isolationsActive)
	reg.MustRegister(isolationsTotal)
	reg.MustRegister(healingPhaseTotal)
	reg.MustRegister(healingOutcomes)
	reg.MustRegister(llmRequestDuration)
	reg.MustRegister(llmErrorsTotal)
	reg.MustRegister(eventsPublished)
	reg.MustRegister(knowledgeEntries)
	reg.MustRegister(proactiveWarnings)

	return &Metrics{
		FaultsDetected:     faultsDetected,
		IsolationsActive:   isolationsActive,
		IsolationsTotal:    isolationsTotal,
		HealingPhaseTotal:  healingPhaseTotal,
		HealingOutcomes:    healingOutcomes,
		LLMRequestDuration: llmRequestDuration,
		LLMErrorsTotal:     llmErrorsTotal,
		EventsPublished:    eventsPublished,
		KnowledgeEntries:   knowledgeEntries,
		ProactiveWarnings:  proactiveWarnings,
		reg:                reg,
	}
}

// ObserveBus registers gauge functions that read subscriber and drop counts
// straight from the bus, so they stay current without polling.
func (m *Metrics) ObserveBus(bus BusStats) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "recist_eventbus_subscribers",
		Help: "Current number of live event bus receivers",
	}, func() float64 {
		return float64(bus.SubscriberCount())
	}))

	m.reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "recist_eventbus_dropped_total",
		Help: "Total number of events dropped by lagging receivers",
	}, func() float64 {
		return float64(bus.DroppedTotal())
	}))
}
