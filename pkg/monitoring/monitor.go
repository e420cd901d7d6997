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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	DraftSaveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_saves_total",
			Help: "Draft writes by source (save, autosave) and result",
		},
		[]string{"source", "result"},
	)

	DraftPublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_publish_total",
			Help: "Draft publish attempts by result",
		},
		[]string{"result"},
	)

	MediaUploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Lesson media uploads by kind and result",
		},
		[]string{"kind", "result"},
	)

	NewsRefreshCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_refresh_total",
			Help: "News feed fetches by source and result",
		},
		[]string{"source", "result"},
	)

	RealtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Open realtime websocket connections",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(DraftSaveCounter)
		prometheus.MustRegister(DraftPublishCounter)
		prometheus.MustRegister(MediaUploadCounter)
		prometheus.MustRegister(NewsRefreshCounter)
		prometheus.MustRegister(RealtimeConnections)
	})
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
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
