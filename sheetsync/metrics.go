package sheetsync

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal   *prometheus.CounterVec
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menusync",
			Name:      "rows_total",
			Help:      "Entities handled by the sheet sync, by kind and action.",
		}, []string{"kind", "action"}),
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menusync",
			Name:      "runs_total",
			Help:      "Sheet sync runs by result.",
		}, []string{"result"}),
		runDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "menusync",
			Name:      "run_duration_seconds",
			Help:      "Duration of completed sheet sync runs.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
