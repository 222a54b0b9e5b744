package imagepipe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_image_uploads_total",
			Help: "Image uploads per folder and outcome.",
		},
		[]string{"folder", "result"},
	)

	retainedDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_retained_assets_deleted_total",
			Help: "Assets deleted by retention sweeps per folder.",
		},
		[]string{"folder"},
	)
)
