package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SourceOther заменяет неизвестный source заявки в метке
const SourceOther = "other"

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		},
		[]string{"method", "path", "status"},
	)

	LeadsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_submitted_total",
			Help: "Total number of stored lead submissions",
		},
		[]string{"source"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Transactional emails by kind and outcome",
		},
		[]string{"kind", "status"}, // status: sent, failed
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Wizard step transitions by form, action and result",
		},
		[]string{"form", "action", "result"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementLead(source string) {
	LeadsSubmitted.WithLabelValues(source).Inc()
}

func IncrementEmail(kind, status string) {
	EmailsSent.WithLabelValues(kind, status).Inc()
}

func IncrementWizard(form, action, result string) {
	WizardTransitions.WithLabelValues(form, action, result).Inc()
}

func IncrementRateLimited(scope string) {
	RateLimited.WithLabelValues(scope).Inc()
}
