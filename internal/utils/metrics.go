package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote categories API metrics
var APICallDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "categorydesk_api_call_duration_seconds",
	Help:    "Duration of calls to the remote categories API in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"operation", "status"})

var APICallErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "categorydesk_api_call_errors_total",
	Help: "Total number of failed calls to the remote categories API.",
}, []string{"operation"})

// In-memory store metrics (demo workspaces and the stub API)
var StoreQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "categorydesk_store_query_duration_seconds",
	Help:    "Duration of in-memory category store operations in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"query_type", "status"})

var StoreQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "categorydesk_store_query_errors_total",
	Help: "Total number of failed in-memory category store operations.",
}, []string{"query_type"})
