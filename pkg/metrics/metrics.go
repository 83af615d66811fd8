// Package metrics exposes Prometheus instrumentation for the query
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts handled queries by selected capability.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinegraph_queries_total",
		Help: "Queries handled, labeled by the capability that answered them.",
	}, []string{"capability"})

	// FailuresTotal counts pipeline failures by stage.
	FailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinegraph_failures_total",
		Help: "Pipeline failures, labeled by stage (routing, invoking, synthesis).",
	}, []string{"stage"})

	// QueryDuration observes end-to-end query handling time.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cinegraph_query_duration_seconds",
		Help:    "End-to-end query handling duration.",
		Buckets: prometheus.DefBuckets,
	})
)
