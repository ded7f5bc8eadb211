package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoopview_fetches_total",
		Help: "Poll cycles per upstream source.",
	}, []string{"source"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoopview_fetch_errors_total",
		Help: "Failed poll cycles per upstream source.",
	}, []string{"source"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stoopview_fetch_duration_seconds",
		Help:    "Poll cycle duration per upstream source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	inboundTrains = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stoopview_inbound_trains",
		Help: "Trains in the inbound tracker per window bucket.",
	}, []string{"bucket"})

	arrivalsListed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stoopview_arrival_board_rows",
		Help: "Rows on the subway arrival board.",
	})
)
