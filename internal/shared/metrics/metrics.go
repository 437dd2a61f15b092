package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported by the service.
var Registry = prometheus.NewRegistry()

var (
	kvOps = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kv_operation_duration_seconds",
		Help:    "Duration of key-value backend calls by operation and collection.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "collection", "outcome"})

	blobOps = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blob_operation_duration_seconds",
		Help:    "Duration of object store calls by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	extractions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "text_extractions_total",
		Help: "Text extractions by resolved format and outcome.",
	}, []string{"format", "outcome"})

	syntheses = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speech_synthesis_duration_seconds",
		Help:    "Speech synthesis latency by provider and outcome.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider", "outcome"})
)

// ObserveKV records a key-value backend call.
func ObserveKV(op, collection string, start time.Time, err error) {
	kvOps.WithLabelValues(op, collection, outcome(err)).Observe(time.Since(start).Seconds())
}

// ObserveBlob records an object store call.
func ObserveBlob(op string, start time.Time, err error) {
	blobOps.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
}

// IncExtraction counts one extraction attempt.
func IncExtraction(format string, err error) {
	extractions.WithLabelValues(format, outcome(err)).Inc()
}

// ObserveSynthesis records one provider round trip.
func ObserveSynthesis(provider string, start time.Time, err error) {
	syntheses.WithLabelValues(provider, outcome(err)).Observe(time.Since(start).Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
