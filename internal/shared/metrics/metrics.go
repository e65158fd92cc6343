package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	comparisonStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comparison_started_total",
		Help: "Total comparisons started.",
	})
	comparisonCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comparison_completed_total",
		Help: "Total comparisons completed.",
	})
	comparisonFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comparison_failed_total",
		Help: "Total comparisons failed, by stage.",
	}, []string{"stage"})
	contradictionsReturnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contradictions_returned_total",
		Help: "Total contradictions returned to callers after filtering.",
	})
	sideEffectFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comparison_side_effect_failed_total",
		Help: "Best-effort post-comparison actions that failed, by action.",
	}, []string{"action"})
	extractionJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "extraction_jobs_total",
		Help: "Extraction jobs processed by the worker, by outcome.",
	}, []string{"outcome"})

	comparisonDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "comparison_duration_ms",
		Help:    "Comparison duration in milliseconds.",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	modelCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "model_call_duration_ms",
		Help:    "External model call duration in milliseconds, by provider.",
		Buckets: []float64{250, 500, 1000, 2000, 5000, 10000, 20000, 45000},
	}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(
		comparisonStartedTotal,
		comparisonCompletedTotal,
		comparisonFailedTotal,
		contradictionsReturnedTotal,
		sideEffectFailedTotal,
		extractionJobsTotal,
		comparisonDuration,
		modelCallDuration,
	)
}

// IncComparisonStarted increments the started counter.
func IncComparisonStarted() {
	comparisonStartedTotal.Inc()
}

// IncComparisonCompleted increments the completed counter and adds the contradiction count.
func IncComparisonCompleted(contradictions int) {
	comparisonCompletedTotal.Inc()
	if contradictions > 0 {
		contradictionsReturnedTotal.Add(float64(contradictions))
	}
}

// IncComparisonFailed increments the failed counter for a pipeline stage.
func IncComparisonFailed(stage string) {
	comparisonFailedTotal.WithLabelValues(stage).Inc()
}

// IncSideEffectFailed counts a best-effort action that did not complete.
func IncSideEffectFailed(action string) {
	sideEffectFailedTotal.WithLabelValues(action).Inc()
}

// IncExtractionJob counts a worker extraction job outcome.
func IncExtractionJob(outcome string) {
	extractionJobsTotal.WithLabelValues(outcome).Inc()
}

// ObserveComparisonDurationMs records a comparison duration in milliseconds.
func ObserveComparisonDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	comparisonDuration.Observe(value)
}

// ObserveModelCallMs records a model call duration in milliseconds.
func ObserveModelCallMs(provider string, value float64) {
	if value < 0 {
		value = 0
	}
	modelCallDuration.WithLabelValues(provider).Observe(value)
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
