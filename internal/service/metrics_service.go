package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/planner-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scheduled       prometheus.Counter
	cancelled       prometheus.Counter
	cancelFailures  prometheus.Counter
	scheduleFailure prometheus.Counter
	delivered       *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	scheduledCount       uint64
	cancelledCount       uint64
	cancelFailureCount   uint64
	scheduleFailureCount uint64
	deliveredCount       uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	scheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminders_scheduled_total",
		Help: "Reminders successfully registered with the notifier",
	})

	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminders_cancelled_total",
		Help: "Reminders successfully cancelled",
	})

	cancelFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_cancel_failures_total",
		Help: "Cancel calls that failed and were ignored",
	})

	scheduleFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_schedule_failures_total",
		Help: "Schedule calls that failed",
	})

	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_delivered_total",
		Help: "Fired reminders accepted by a delivery channel",
	}, []string{"channel"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scheduled, cancelled, cancelFailures, scheduleFailure, delivered, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scheduled:       scheduled,
		cancelled:       cancelled,
		cancelFailures:  cancelFailures,
		scheduleFailure: scheduleFailure,
		delivered:       delivered,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ReminderScheduled counts a successful schedule call.
func (m *MetricsService) ReminderScheduled() {
	if m == nil {
		return
	}
	m.scheduled.Inc()
	atomic.AddUint64(&m.scheduledCount, 1)
}

// ReminderCancelled counts a successful cancel call.
func (m *MetricsService) ReminderCancelled() {
	if m == nil {
		return
	}
	m.cancelled.Inc()
	atomic.AddUint64(&m.cancelledCount, 1)
}

// ReminderCancelFailed counts a cancel call that failed.
func (m *MetricsService) ReminderCancelFailed() {
	if m == nil {
		return
	}
	m.cancelFailures.Inc()
	atomic.AddUint64(&m.cancelFailureCount, 1)
}

// ReminderScheduleFailed counts a schedule call that failed.
func (m *MetricsService) ReminderScheduleFailed() {
	if m == nil {
		return
	}
	m.scheduleFailure.Inc()
	atomic.AddUint64(&m.scheduleFailureCount, 1)
}

// NotificationDelivered counts a fired reminder accepted by channel.
func (m *MetricsService) NotificationDelivered(channel string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(channel).Inc()
	atomic.AddUint64(&m.deliveredCount, 1)
}

// Snapshot returns aggregated metrics suitable for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RemindersScheduled:       atomic.LoadUint64(&m.scheduledCount),
		RemindersCancelled:       atomic.LoadUint64(&m.cancelledCount),
		ReminderCancelFailures:   atomic.LoadUint64(&m.cancelFailureCount),
		ReminderScheduleFailures: atomic.LoadUint64(&m.scheduleFailureCount),
		NotificationsDelivered:   atomic.LoadUint64(&m.deliveredCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
