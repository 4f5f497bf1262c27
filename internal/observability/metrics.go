package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	adminRequestsTotal    *prometheus.CounterVec
	adminLatencySeconds   *prometheus.HistogramVec
	adminErrorsTotal      *prometheus.CounterVec
	submissionsTotal      *prometheus.CounterVec
	decisionsTotal        *prometheus.CounterVec
	dashboardCacheTotal   *prometheus.CounterVec
	notificationsFailures *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Applications accepted, by kind.",
		}, []string{"kind"})

		decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "application_decisions_total",
			Help: "Approve and reject decisions applied, by kind and resulting status.",
		}, []string{"kind", "decision", "status"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_requests_total",
			Help: "Dashboard cache lookups, by result.",
		}, []string{"result"})

		notificationsFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decision_notifications_failed_total",
			Help: "Decision notifications that could not be delivered, by notifier.",
		}, []string{"notifier"})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			submissionsTotal,
			decisionsTotal,
			dashboardCacheTotal,
			notificationsFailures,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// ApplicationsSubmitted exposes the submission counter.
func ApplicationsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ApplicationDecisions exposes the decision counter.
func ApplicationDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsTotal
}

// DashboardCacheRequests exposes the dashboard cache hit/miss counter.
func DashboardCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// NotificationFailures exposes the failed notification counter.
func NotificationFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsFailures
}
