// Package observability exposes prometheus instrumentation for the form
// engine: mutation, validation, submit and history-move counters, plus
// validation latency.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the engine metrics. A nil *Collector is a valid no-op
// receiver, so the engine can call it unconditionally.
type Collector struct {
	mutations          prometheus.Counter
	validations        *prometheus.CounterVec
	submits            *prometheus.CounterVec
	historyMoves       *prometheus.CounterVec
	validationDuration prometheus.Histogram
}

// NewCollector creates and registers the engine metrics on reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a private
// registry in tests and multi-engine processes.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mutations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formwork_mutations_total",
			Help: "Total number of accepted state mutations",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formwork_validations_total",
			Help: "Total number of validation passes",
		}, []string{"outcome"}),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formwork_submits_total",
			Help: "Total number of submit attempts",
		}, []string{"outcome"}),
		historyMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formwork_history_moves_total",
			Help: "Total number of undo/redo moves",
		}, []string{"direction"}),
		validationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "formwork_validation_duration_seconds",
			Help: "Duration of validation passes",
		}),
	}
	reg.MustRegister(c.mutations, c.validations, c.submits, c.historyMoves, c.validationDuration)
	return c
}

// Mutation counts one accepted state mutation.
func (c *Collector) Mutation() {
	if c == nil {
		return
	}
	c.mutations.Inc()
}

// Validation counts one validation pass and its latency.
func (c *Collector) Validation(valid bool, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.validations.WithLabelValues(outcome(valid)).Inc()
	c.validationDuration.Observe(elapsed.Seconds())
}

// Submit counts one submit attempt.
func (c *Collector) Submit(ok bool) {
	if c == nil {
		return
	}
	c.submits.WithLabelValues(outcome(ok)).Inc()
}

// HistoryMove counts one undo or redo.
func (c *Collector) HistoryMove(direction string) {
	if c == nil {
		return
	}
	c.historyMoves.WithLabelValues(direction).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "valid"
	}
	return "invalid"
}
