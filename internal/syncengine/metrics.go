package syncengine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_list_merges_total",
			Help: "Login merges per collection and outcome.",
		},
		[]string{"collection", "result"},
	)

	rollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_list_rollbacks_total",
			Help: "Optimistic updates rolled back after a failed write.",
		},
		[]string{"collection", "operation"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_list_mutations_total",
			Help: "Successful list mutations per collection and operation.",
		},
		[]string{"collection", "operation"},
	)
)
