package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	EvaluationsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "istas_evaluations_completed_total",
			Help: "Completed evaluations by risk level",
		},
		[]string{"risk_level"},
	)

	EvaluationsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "istas_evaluations_incomplete_total",
			Help: "Completion attempts rejected because answers were missing",
		},
	)

	EvaluationSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "istas_evaluation_saves_total",
			Help: "Evaluation persistence attempts by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(EvaluationsCompleted)
		prometheus.MustRegister(EvaluationsRejected)
		prometheus.MustRegister(EvaluationSaves)
	})
}

// ObserveSave counts one save with outcome "ok", "conflict" or "error".
func ObserveSave(outcome string) {
	EvaluationSaves.WithLabelValues(outcome).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
