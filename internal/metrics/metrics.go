// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the trading engine.
type Metrics struct {
	OrdersCreated           *prometheus.CounterVec
	OrdersSettled           *prometheus.CounterVec
	LedgerEntries           *prometheus.CounterVec
	TradingPausedRejections prometheus.Counter
	SettlementDuration      prometheus.Histogram
	HTTPRequests            *prometheus.CounterVec
	HTTPDuration            *prometheus.HistogramVec
}

// New creates a metrics instance registered on reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goldtrade",
				Subsystem: "engine",
				Name:      "orders_created_total",
				Help:      "Total number of orders created",
			},
			[]string{"product", "side"},
		),
		OrdersSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goldtrade",
				Subsystem: "engine",
				Name:      "orders_settled_total",
				Help:      "Total number of orders settled",
			},
			[]string{"product", "side"},
		),
		LedgerEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goldtrade",
				Subsystem: "engine",
				Name:      "ledger_entries_total",
				Help:      "Total number of ledger entries written",
			},
			[]string{"type"},
		),
		TradingPausedRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "goldtrade",
				Subsystem: "engine",
				Name:      "trading_paused_rejections_total",
				Help:      "Operations rejected by the trading-pause circuit breaker",
			},
		),
		SettlementDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "goldtrade",
				Subsystem: "engine",
				Name:      "settlement_duration_seconds",
				Help:      "Duration of atomic settlement units",
				Buckets:   prometheus.DefBuckets,
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goldtrade",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goldtrade",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// statusRecorder captures the response code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request count and duration.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
