package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProducerClientsCreated counts producer clients constructed by the lifecycle manager
	ProducerClientsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kafkameter_producer_clients_created_total",
			Help: "Total number of producer clients constructed",
		},
	)

	// ProducerStartConflicts counts run-start signals that found a client already published
	ProducerStartConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kafkameter_producer_start_conflicts_total",
			Help: "Total number of run-start signals ignored because a client was already running",
		},
	)

	// ProducerInitFailures counts failed producer constructions
	ProducerInitFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kafkameter_producer_init_failures_total",
			Help: "Total number of failed producer client constructions",
		},
	)

	// ProducerTeardownFailures counts failures during run-end, by stage (flush or close)
	ProducerTeardownFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafkameter_producer_teardown_failures_total",
			Help: "Total number of producer teardown failures",
		},
		[]string{"stage"},
	)

	// ProducerReady is 1 while a producer client is published
	ProducerReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kafkameter_producer_ready",
			Help: "Whether a producer client is currently published (1) or not (0)",
		},
	)

	// SamplesTotal tracks samples executed by worker units
	SamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafkameter_samples_total",
			Help: "Total number of samples executed",
		},
		[]string{"status"},
	)

	// SampleLatency tracks produce latency as seen by worker units
	SampleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kafkameter_sample_duration_seconds",
			Help:    "Sample produce latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FailureStoreLatency tracks failed-sample store latency
	FailureStoreLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kafkameter_failure_store_duration_seconds",
			Help:    "Failed sample store push latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DBLatency tracks database operation latency
	DBLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafkameter_db_operation_duration_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
