package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LiveClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "visionboard_live_clients",
		Help: "Current number of connected live board clients by transport",
	}, []string{"transport"})

	LiveConnectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visionboard_live_connection_duration_seconds",
		Help:    "Duration of live board connections",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"transport"})

	BoardContent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "visionboard_content_items",
		Help: "Number of board items by kind and visibility",
	}, []string{"kind", "state"})

	ContentChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visionboard_content_changes_total",
		Help: "Total announcement and event mutations",
	}, []string{"kind", "action"})

	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visionboard_auth_attempts_total",
		Help: "Authentication attempts by action and result",
	}, []string{"action", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visionboard_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	ExpiredSessionsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visionboard_expired_sessions_purged_total",
		Help: "Refresh tokens removed by the purge job",
	})
)

func label(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func SetLiveClients(transport string, count int) {
	if count < 0 {
		count = 0
	}
	LiveClients.WithLabelValues(label(transport)).Set(float64(count))
}

func ObserveLiveConnectionDuration(transport string, duration time.Duration) {
	LiveConnectionDuration.WithLabelValues(label(transport)).Observe(duration.Seconds())
}

func SetBoardContent(kind, state string, count int64) {
	if count < 0 {
		count = 0
	}
	BoardContent.WithLabelValues(label(kind), label(state)).Set(float64(count))
}

func IncContentChange(kind, action string) {
	ContentChanges.WithLabelValues(label(kind), label(action)).Inc()
}

func IncAuthAttempt(action, result string) {
	AuthAttempts.WithLabelValues(label(action), label(result)).Inc()
}

func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	HTTPRequestDuration.WithLabelValues(label(method), label(route), class).Observe(duration.Seconds())
}

func AddExpiredSessionsPurged(count int64) {
	if count > 0 {
		ExpiredSessionsPurged.Add(float64(count))
	}
}
