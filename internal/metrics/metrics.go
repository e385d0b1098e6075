// Package metrics holds the Prometheus collectors shared by the view sessions
// and the reconcile engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeNoChange = "no_change"
	OutcomeFailure  = "failure"
)

// Row actions
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionRemoved = "removed"
	ActionSkipped = "skipped"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partview_fetch_total",
		Help: "Partition snapshot fetches by outcome",
	}, []string{"outcome"})

	ReconcileRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partview_reconcile_rows_total",
		Help: "Rows touched by the reconcile engine by action",
	}, []string{"action"})

	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partview_reconcile_duration_seconds",
		Help:    "Duration of one reconcile pass",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	ReconcileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partview_reconcile_errors_total",
		Help: "Reconcile diagnostics by reason",
	}, []string{"reason"})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "partview_sessions",
		Help: "Number of open view sessions",
	})
)
