package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	parseJobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parse_jobs_started_total",
		Help: "Total resume parse jobs started",
	})
	parseJobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parse_jobs_completed_total",
		Help: "Total resume parse jobs completed",
	})
	parseJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parse_jobs_failed_total",
		Help: "Total resume parse jobs failed",
	})
	parseJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parse_job_duration_ms",
		Help:    "Resume parse job duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000},
	})

	completionCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "completion_calls_total",
		Help: "Completion service calls by operation and outcome",
	}, []string{"operation", "outcome"})
	completionTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "completion_tokens_total",
		Help: "Completion tokens consumed by direction",
	}, []string{"direction"})
	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "completion_duration_ms",
		Help:    "Completion call duration in milliseconds",
		Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000},
	}, []string{"operation"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "result_cache_hits_total",
		Help: "AI result cache hits by kind",
	}, []string{"kind"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "result_cache_misses_total",
		Help: "AI result cache misses by kind",
	}, []string{"kind"})
)

// IncParseJobStarted increments the started counter.
func IncParseJobStarted() { parseJobsStarted.Inc() }

// IncParseJobCompleted increments the completed counter.
func IncParseJobCompleted() { parseJobsCompleted.Inc() }

// IncParseJobFailed increments the failed counter.
func IncParseJobFailed() { parseJobsFailed.Inc() }

// ObserveParseJobDurationMs records a parse job duration in milliseconds.
func ObserveParseJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	parseJobDuration.Observe(value)
}

// IncCompletionCall records one completion call with its outcome ("ok" or "error").
func IncCompletionCall(operation, outcome string) {
	completionCalls.WithLabelValues(operation, outcome).Inc()
}

// AddCompletionTokens records token usage for a completion call.
func AddCompletionTokens(input, output int) {
	if input > 0 {
		completionTokens.WithLabelValues("input").Add(float64(input))
	}
	if output > 0 {
		completionTokens.WithLabelValues("output").Add(float64(output))
	}
}

// ObserveCompletionDurationMs records a completion call duration.
func ObserveCompletionDurationMs(operation string, value float64) {
	if value < 0 {
		value = 0
	}
	completionDuration.WithLabelValues(operation).Observe(value)
}

// IncCacheHit records a served-from-cache result.
func IncCacheHit(kind string) { cacheHits.WithLabelValues(kind).Inc() }

// IncCacheMiss records a cache miss that triggered a computation.
func IncCacheMiss(kind string) { cacheMisses.WithLabelValues(kind).Inc() }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
