package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Category operations by mode (live/demo) and outcome (success/failed/rejected/declined).
	CategoryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "categorydesk_category_operations_total",
		Help: "Total number of category operations performed by users.",
	}, []string{"operation", "mode", "outcome"})
	BulkItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "categorydesk_bulk_items_total",
		Help: "Total number of names processed by bulk creation.",
	}, []string{"mode", "outcome"})

	// Connectivity
	FallbackActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "categorydesk_fallback_activations_total",
		Help: "Total number of times a workspace switched to demo mode.",
	}, []string{"reason"}) // reason: "unreachable" or "malformed"
	APIUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "categorydesk_api_up",
		Help: "Whether the last background probe reached the categories API (1) or not (0).",
	})

	// Web sessions
	ActiveWorkspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "categorydesk_active_workspaces",
		Help: "Number of browser sessions holding an in-memory category workspace.",
	})
)
