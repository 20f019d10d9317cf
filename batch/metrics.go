package batch

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by all metrics exposed by this
// package.
const MetricsSubsystem = "batch"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Operations submitted to the ledger.
	OperationsSubmitted metrics.Counter
	// Operations that succeeded.
	OperationsSucceeded metrics.Counter
	// Operations that failed.
	OperationsFailed metrics.Counter
	// Sub-batches split after a resource-exhaustion rejection.
	BatchSplits metrics.Counter
	// Sub-batches resolved via the assumed-success fallback.
	AssumedBatches metrics.Counter

	// Size of submitted sub-batches.
	BatchSize metrics.Histogram
	// Wall time of one sub-batch submission, seconds.
	SubmissionTime metrics.Histogram

	// Whether a run is currently active (0 or 1).
	RunActive metrics.Gauge
}

// PrometheusMetrics returns Metrics built using the Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		OperationsSubmitted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "operations_submitted_total",
			Help:      "Operations submitted to the ledger.",
		}, labels).With(labelsAndValues...),
		OperationsSucceeded: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "operations_succeeded_total",
			Help:      "Operations that succeeded.",
		}, labels).With(labelsAndValues...),
		OperationsFailed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "operations_failed_total",
			Help:      "Operations that failed.",
		}, labels).With(labelsAndValues...),
		BatchSplits: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_splits_total",
			Help:      "Sub-batches split after a resource-exhaustion rejection.",
		}, labels).With(labelsAndValues...),
		AssumedBatches: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "assumed_batches_total",
			Help:      "Sub-batches resolved via the assumed-success fallback.",
		}, labels).With(labelsAndValues...),
		BatchSize: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_size",
			Help:      "Size of submitted sub-batches.",
		}, labels).With(labelsAndValues...),
		SubmissionTime: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submission_time_seconds",
			Help:      "Wall time of one sub-batch submission.",
		}, labels).With(labelsAndValues...),
		RunActive: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_active",
			Help:      "Whether a run is currently active.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		OperationsSubmitted: discard.NewCounter(),
		OperationsSucceeded: discard.NewCounter(),
		OperationsFailed:    discard.NewCounter(),
		BatchSplits:         discard.NewCounter(),
		AssumedBatches:      discard.NewCounter(),
		BatchSize:           discard.NewHistogram(),
		SubmissionTime:      discard.NewHistogram(),
		RunActive:           discard.NewGauge(),
	}
}
