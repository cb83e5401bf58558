package studycompanion

import "github.com/prometheus/client_golang/prometheus"

var (
	generationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "study_generation_requests_total",
			Help: "Total number of generation requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "study_generation_duration_seconds",
			Help:    "Duration of model calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	extractionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "study_extraction_failures_total",
			Help: "Model responses that could not be turned into a record",
		},
		[]string{"kind", "reason"},
	)

	storeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "study_store_fallbacks_total",
			Help: "Times persistence failed and a session store fell back to memory",
		},
	)
)

// RegisterMetrics registers the package collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(generationRequests, generationDuration, extractionFailures, storeFallbacks)
}
