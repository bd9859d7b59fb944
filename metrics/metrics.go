// Package metrics provides Prometheus-compatible instrumentation for the
// document chain and workflow engine, adapted from the teacher's
// graph/metrics.go PrometheusMetrics collector.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every metric the chain service and workflow engine
// report. All metrics are namespaced "docengine_".
type Collector struct {
	chainLength        *prometheus.GaugeVec
	verifyDurationMS   *prometheus.HistogramVec
	verifyIssues       *prometheus.CounterVec
	activeInstances    prometheus.Gauge
	guardDenials       *prometheus.CounterVec
	timerEscalations   *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// New creates and registers every docengine metric with registry. A nil
// registry uses prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	c := &Collector{enabled: true}

	c.chainLength = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "docengine",
		Name:      "chain_length",
		Help:      "Number of links in a document's successor chain (including root)",
	}, []string{"document_id"})

	c.verifyDurationMS = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docengine",
		Name:      "chain_verify_duration_ms",
		Help:      "Duration of a chain verification pass in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"chain_kind"}) // chain_kind: "cid" or "event"

	c.verifyIssues = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docengine",
		Name:      "chain_verify_issues_total",
		Help:      "Issues found during chain verification, by severity",
	}, []string{"chain_kind", "severity"})

	c.activeInstances = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "docengine",
		Name:      "workflow_active_instances",
		Help:      "Current number of Running workflow instances",
	})

	c.guardDenials = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docengine",
		Name:      "workflow_guard_denials_total",
		Help:      "Guard evaluations that returned Deny, by guard kind",
	}, []string{"guard"})

	c.timerEscalations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docengine",
		Name:      "workflow_timer_escalations_total",
		Help:      "Timer-driven escalations and deadline breaches, by timer kind",
	}, []string{"timer_kind"})

	c.transitionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docengine",
		Name:      "workflow_transitions_total",
		Help:      "Workflow transitions executed, by outcome",
	}, []string{"outcome"}) // outcome: success, guard_failed, action_failed, invalid

	return c
}

// SetChainLength records the current link count for a document's chain.
func (c *Collector) SetChainLength(documentID string, length int) {
	if !c.isEnabled() {
		return
	}
	c.chainLength.WithLabelValues(documentID).Set(float64(length))
}

// RecordVerifyDuration records how long a verify pass took.
func (c *Collector) RecordVerifyDuration(chainKind string, d time.Duration) {
	if !c.isEnabled() {
		return
	}
	c.verifyDurationMS.WithLabelValues(chainKind).Observe(float64(d.Milliseconds()))
}

// IncrementVerifyIssue records one verification issue of the given severity.
func (c *Collector) IncrementVerifyIssue(chainKind, severity string) {
	if !c.isEnabled() {
		return
	}
	c.verifyIssues.WithLabelValues(chainKind, severity).Inc()
}

// SetActiveInstances sets the current count of Running workflow instances.
func (c *Collector) SetActiveInstances(n int) {
	if !c.isEnabled() {
		return
	}
	c.activeInstances.Set(float64(n))
}

// IncrementGuardDenial records one Deny result from the named guard kind.
func (c *Collector) IncrementGuardDenial(guard string) {
	if !c.isEnabled() {
		return
	}
	c.guardDenials.WithLabelValues(guard).Inc()
}

// IncrementTimerEscalation records one SLA/deadline escalation of the given
// timer kind.
func (c *Collector) IncrementTimerEscalation(timerKind string) {
	if !c.isEnabled() {
		return
	}
	c.timerEscalations.WithLabelValues(timerKind).Inc()
}

// IncrementTransition records one executed transition with its outcome.
func (c *Collector) IncrementTransition(outcome string) {
	if !c.isEnabled() {
		return
	}
	c.transitionsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) isEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Disable stops recording (useful for tests).
func (c *Collector) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// Enable resumes recording after Disable.
func (c *Collector) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}
