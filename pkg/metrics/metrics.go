// Package metrics provides Prometheus metrics for the Laurel service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordMutationsTotal tracks record create/update/delete operations by type and status
	RecordMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "records",
			Name:      "mutations_total",
			Help:      "Total number of record mutations by record type, operation and status",
		},
		[]string{"record_type", "operation", "status"},
	)

	// IntegrityCleanupsTotal tracks clergy deletions and the references they detach
	IntegrityCleanupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "integrity",
			Name:      "cleanups_total",
			Help:      "Total number of integrity cleanup runs by status",
		},
		[]string{"status"},
	)

	// IntegrityDetachmentsTotal tracks individual detached references by kind
	IntegrityDetachmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "integrity",
			Name:      "detachments_total",
			Help:      "Total number of detached references by reference kind",
		},
		[]string{"kind"},
	)

	// LineageBuildsTotal tracks lineage graph builds by status
	LineageBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "lineage",
			Name:      "builds_total",
			Help:      "Total number of lineage graph builds by status",
		},
		[]string{"status"},
	)

	// LineageBuildDuration tracks lineage graph build duration in seconds
	LineageBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "laurel",
			Subsystem: "lineage",
			Name:      "build_duration_seconds",
			Help:      "Duration of lineage graph builds in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// LegacyMigrationsTotal tracks legacy migration runs by outcome
	LegacyMigrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "legacy",
			Name:      "migrations_total",
			Help:      "Total number of legacy migration runs by outcome",
		},
		[]string{"outcome"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "laurel",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// GraphSyncsTotal tracks graph database projection syncs by status
	GraphSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laurel",
			Subsystem: "graphdb",
			Name:      "syncs_total",
			Help:      "Total number of graph database projection syncs by status",
		},
		[]string{"status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laurel",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordMutation records a record mutation metric
func RecordMutation(recordType, operation, status string) {
	RecordMutationsTotal.WithLabelValues(recordType, operation, status).Inc()
}

// RecordIntegrityCleanup records an integrity cleanup run and its detachments
func RecordIntegrityCleanup(status string, ordinations, consecrations, coConsecrators int) {
	IntegrityCleanupsTotal.WithLabelValues(status).Inc()
	IntegrityDetachmentsTotal.WithLabelValues("ordination_officiant").Add(float64(ordinations))
	IntegrityDetachmentsTotal.WithLabelValues("consecration_consecrator").Add(float64(consecrations))
	IntegrityDetachmentsTotal.WithLabelValues("co_consecrator").Add(float64(coConsecrators))
}

// RecordLineageBuild records a lineage graph build metric
func RecordLineageBuild(status string, durationSeconds float64) {
	LineageBuildsTotal.WithLabelValues(status).Inc()
	LineageBuildDuration.Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}
