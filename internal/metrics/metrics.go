// Package metrics provides the centralized Prometheus registry for the signal worker.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "form_signals"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	MatchesEvaluatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_evaluated_total",
		Help:      "Total number of matches evaluated, by run",
	}, []string{"run"})
	MatchesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_skipped_total",
		Help:      "Total number of matches skipped, by reason",
	}, []string{"reason"})
	OpportunitiesFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_found_total",
		Help:      "Total number of opportunities emitted by the engine, by rule",
	}, []string{"rule"})
	OpportunitiesCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_created_total",
		Help:      "Total number of opportunities newly stored, by rule",
	}, []string{"rule"})
	OutcomesResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outcomes_resolved_total",
		Help:      "Total number of opportunity outcomes resolved by backfill",
	})
	PublishFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_failures_total",
		Help:      "Total number of failed opportunity publications, by publisher",
	}, []string{"publisher"})
	InvariantViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invariant_violations_total",
		Help:      "Total number of opportunity storage invariant violations",
	})
)

// Gauge metrics
var (
	ActiveOpportunities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_opportunities",
		Help:      "Unresolved opportunities on matches not yet finished",
	})
	RuleWinRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rule_win_rate_percent",
		Help:      "Win rate of resolved opportunities, by rule",
	}, []string{"rule"})
)

// Histogram metrics
var (
	OpportunityConfidence = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "opportunity_confidence",
		Help:      "Confidence of emitted opportunities",
		Buckets:   []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
	}, []string{"rule"})
	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of analysis and backfill runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"run"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(MatchesEvaluatedTotal)
		registry.MustRegister(MatchesSkippedTotal)
		registry.MustRegister(OpportunitiesFoundTotal)
		registry.MustRegister(OpportunitiesCreatedTotal)
		registry.MustRegister(OutcomesResolvedTotal)
		registry.MustRegister(PublishFailuresTotal)
		registry.MustRegister(InvariantViolationsTotal)

		registry.MustRegister(ActiveOpportunities)
		registry.MustRegister(RuleWinRate)

		registry.MustRegister(OpportunityConfidence)
		registry.MustRegister(RunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordMatchEvaluated records a match evaluated by a run.
func RecordMatchEvaluated(run string) {
	MatchesEvaluatedTotal.WithLabelValues(run).Inc()
}

// RecordMatchSkipped records a match skipped for reason.
func RecordMatchSkipped(reason string) {
	MatchesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordOpportunity records an emitted opportunity and whether it was new.
func RecordOpportunity(rule string, confidence float64, created bool) {
	OpportunitiesFoundTotal.WithLabelValues(rule).Inc()
	OpportunityConfidence.WithLabelValues(rule).Observe(confidence)
	if created {
		OpportunitiesCreatedTotal.WithLabelValues(rule).Inc()
	}
}

// RecordOutcomesResolved records outcomes settled by a backfill pass.
func RecordOutcomesResolved(count int) {
	OutcomesResolvedTotal.Add(float64(count))
}

// RecordPublishFailure records a failed publication.
func RecordPublishFailure(publisher string) {
	PublishFailuresTotal.WithLabelValues(publisher).Inc()
}

// RecordInvariantViolation records a storage invariant violation.
func RecordInvariantViolation() {
	InvariantViolationsTotal.Inc()
}

// UpdateActiveOpportunities updates the active opportunities gauge.
func UpdateActiveOpportunities(count int) {
	ActiveOpportunities.Set(float64(count))
}

// UpdateRuleWinRate updates the win rate gauge of a rule.
func UpdateRuleWinRate(rule string, percent float64) {
	RuleWinRate.WithLabelValues(rule).Set(percent)
}

// RecordRunDuration records how long a run took.
func RecordRunDuration(run string, durationSeconds float64) {
	RunDuration.WithLabelValues(run).Observe(durationSeconds)
}
