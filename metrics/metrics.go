package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylefit_classifications_total",
			Help: "Completed body type classifications",
		},
		[]string{"body_type", "style"},
	)

	wizardTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylefit_wizard_transitions_total",
			Help: "Wizard step transitions",
		},
		[]string{"from", "to"},
	)

	pipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylefit_pipeline_runs_total",
			Help: "Loading pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	premiumUnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylefit_premium_unlocks_total",
			Help: "Premium unlocks by path (paid or skipped)",
		},
		[]string{"via"},
	)
)

// Middleware records request count and latency per gin route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func ObserveClassification(bodyType, style string) {
	classificationsTotal.WithLabelValues(bodyType, style).Inc()
}

func ObserveTransition(from, to string) {
	wizardTransitionsTotal.WithLabelValues(from, to).Inc()
}

func ObservePipeline(outcome string) {
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
}

func ObserveUnlock(via string) {
	premiumUnlocksTotal.WithLabelValues(via).Inc()
}
