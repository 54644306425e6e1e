// Package metrics declares the Prometheus collectors for the update service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dyndns"

// UpdateCount counts finished update requests by outcome.
var UpdateCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "update_requests_total",
	Help:      "Counter of update requests by outcome.",
}, []string{"outcome"})

// RejectionCount counts authorization rejections by internal reason.
var RejectionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "rejections_total",
	Help:      "Counter of rejected update requests by reason.",
}, []string{"reason"})

// UpsertDuration observes how long provider upserts take, retries included.
var UpsertDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "provider_upsert_duration_seconds",
	Help:      "Duration of provider upserts.",
	Buckets:   prometheus.DefBuckets,
}, []string{"result"})

// PolicyFetchFailures counts failed policy document fetches.
var PolicyFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "policy_fetch_failures_total",
	Help:      "Counter of failed policy document fetches.",
})
