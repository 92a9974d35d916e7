package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tod_rooms_created_total",
		Help: "Total number of rooms created",
	}, []string{"visibility"})
	RoomsDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tod_rooms_deleted_total",
		Help: "Total number of rooms deleted",
	}, []string{"reason"})
	MembersJoinedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tod_members_joined_total",
		Help: "Total number of successful room joins",
	}, []string{"visibility"})
	JoinCodeCollisionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tod_join_code_collisions_total",
		Help: "Join code draws rejected because the code was already taken",
	})
	SweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tod_sweep_runs_total",
		Help: "Expiry sweep runs by outcome",
	}, []string{"outcome"})
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tod_sweep_duration_seconds",
		Help:    "Expiry sweep duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tod_ws_connections",
		Help: "Current number of active room websocket connections",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		RoomsCreatedTotal,
		RoomsDeletedTotal,
		MembersJoinedTotal,
		JoinCodeCollisionsTotal,
		SweepRunsTotal,
		SweepDuration,
		WsConnections,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

func Visibility(isPublic bool) string {
	if isPublic {
		return "public"
	}
	return "private"
}

// GinMiddleware records request counts and latencies per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
