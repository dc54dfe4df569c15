package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "megano"

var (
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})

	LatencyMS = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	// Transitions counts committed order state changes by target status.
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Order state transitions by resulting status.",
	}, []string{"status"})

	Payments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "payments_total",
		Help:      "Payment attempts by outcome.",
	}, []string{"outcome"})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{Requests, LatencyMS, Transitions, Payments} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		handler := ctx.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		Requests.WithLabelValues(handler, strconv.Itoa(ctx.Writer.Status())).Inc()
		LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
