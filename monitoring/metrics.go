package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	PointsDebited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consultation_points_debited_total",
			Help: "Consultation points debited from client balances",
		},
	)

	PointsCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consultation_points_credited_total",
			Help: "Consultation points credited to balances (refunds and top-ups)",
		},
	)

	NotificationsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Notifications appended to the notification log",
		},
		[]string{"severity"},
	)

	RemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meeting_reminders_sent_total",
			Help: "Meetings whose reminder notifications were emitted",
		},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDuration,
			PointsDebited,
			PointsCredited,
			NotificationsEmitted,
			RemindersSent,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
