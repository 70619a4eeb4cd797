package phenodata

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phenopick_cache_requests_total",
			Help: "Bundle requests by outcome (hit, shared, miss).",
		},
		[]string{"outcome"},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phenopick_loads_total",
			Help: "Completed ontology loads by result (ok, error).",
		},
		[]string{"result"},
	)

	loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phenopick_load_duration_seconds",
			Help:    "Time taken to fetch both ontologies and build the index.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(cacheRequests)
	prometheus.MustRegister(loadsTotal)
	prometheus.MustRegister(loadDuration)
}
