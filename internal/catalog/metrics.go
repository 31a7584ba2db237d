package catalog

import "github.com/prometheus/client_golang/prometheus"

var (
	catalogDevices = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "droidspec_catalog_devices",
		Help: "Number of devices in the current catalog.",
	})
	catalogLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droidspec_catalog_loads_total",
			Help: "Catalog load attempts by source and result.",
		},
		[]string{"source", "result"},
	)
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droidspec_exports_total",
			Help: "Completed exports by format.",
		},
		[]string{"format"},
	)
)

func init() {
	prometheus.MustRegister(catalogDevices, catalogLoads, exportsTotal)
}
