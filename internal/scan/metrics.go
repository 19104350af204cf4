package scan

import "github.com/prometheus/client_golang/prometheus"

var (
	filesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelscan",
			Subsystem: "scan",
			Name:      "files_total",
			Help:      "Files examined by scan passes, by outcome",
		},
		[]string{"outcome"},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modelscan",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of whole scan passes in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	inventorySize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "modelscan",
			Subsystem: "scan",
			Name:      "inventory_records",
			Help:      "Inventory records after the last pass, by tier",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(filesTotal, scanDuration, inventorySize)
}
