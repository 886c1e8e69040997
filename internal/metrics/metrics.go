// Package metrics provides Prometheus instrumentation for the escrow ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LedgerEntriesTotal counts appended ledger entries.
	LedgerEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_ledger_entries_total",
		Help: "Total ledger entries appended",
	}, []string{"kind", "reason"})

	// LedgerRejectionsTotal counts mutations refused by validation.
	LedgerRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_ledger_rejections_total",
		Help: "Ledger mutations rejected, by operation and error",
	}, []string{"op", "error"})

	// TxRetriesTotal counts storage transactions retried after a transient failure.
	TxRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_ledger_tx_retries_total",
		Help: "Storage transactions retried",
	}, []string{"op"})

	// SettlementsTotal counts consumed escrow holds by settlement type.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_settlements_total",
		Help: "Escrow holds settled, by release or dispute resolution type",
	}, []string{"type"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "escrow_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics. The route pattern is used as the path
// label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
