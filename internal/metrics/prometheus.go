// Package metrics provides Prometheus metrics for the EMI admin API.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	paymentsRecorded prometheus.Counter
	paymentAmount    prometheus.Counter
	devicesLocked    *prometheus.CounterVec
	remindersCreated prometheus.Counter
	pushSent         prometheus.Counter
	healthStatus     prometheus.Gauge
}

var globalMetrics *Metrics

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_api_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emi_api_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		requestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "emi_api_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		paymentsRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "emi_api_payments_recorded_total",
				Help: "Total number of payments recorded",
			},
		),
		paymentAmount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "emi_api_payment_amount_eur_total",
				Help: "Total payment amount collected in EUR",
			},
		),
		devicesLocked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_api_devices_locked_total",
				Help: "Total number of device lock operations",
			},
			[]string{"reason"},
		),
		remindersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "emi_api_reminders_created_total",
				Help: "Total number of payment reminders created",
			},
		),
		pushSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "emi_api_push_notifications_sent_total",
				Help: "Total number of push notifications sent",
			},
		),
		healthStatus: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "emi_api_health_status",
				Help: "Health status of the service (1 = healthy, 0 = unhealthy)",
			},
		),
	}

	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordPayment records a collected payment.
func (m *Metrics) RecordPayment(amount float64) {
	m.paymentsRecorded.Inc()
	m.paymentAmount.Add(amount)
}

// RecordDeviceLock records a lock operation. Reason is "manual" or "auto".
func (m *Metrics) RecordDeviceLock(reason string) {
	m.devicesLocked.WithLabelValues(reason).Inc()
}

// RecordReminders records created reminders.
func (m *Metrics) RecordReminders(count int) {
	m.remindersCreated.Add(float64(count))
}

// RecordPushSent records delivered push notifications.
func (m *Metrics) RecordPushSent(count int) {
	m.pushSent.Add(float64(count))
}

// SetHealthStatus sets the health status.
func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.healthStatus.Set(1)
	} else {
		m.healthStatus.Set(0)
	}
}

// Server provides a separate HTTP server for Prometheus metrics.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer creates a new metrics server.
func NewServer(port int, path string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start starts the metrics server.
func (s *Server) Start() error {
	s.logger.Info("starting metrics server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Middleware creates middleware that records HTTP metrics.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			m.RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
		})
	}
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
