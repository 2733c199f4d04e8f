// Package metrics defines the Prometheus metrics of the bridge.
//
// Metrics are registered with the default registry and served by the
// /metrics endpoint of the server.
package metrics

import (
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpLogin  = "login"
	OpLogout = "logout"

	EventIssued    = "issued"
	EventRecovered = "recovered"
	EventRejected  = "rejected"
	EventCleared   = "cleared"
	EventFailed    = "failed"

	resultError = "ERROR"
)

var (
	// AuthResultsTotal counts login and logout outcomes
	AuthResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_auth_results_total",
			Help: "Total number of login and logout attempts by outcome.",
		},
		[]string{"op", "result"},
	)

	// RememberMeEventsTotal counts persistent login cookie events
	RememberMeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_rememberme_events_total",
			Help: "Total number of persistent login cookies issued, recovered, rejected or cleared.",
		},
		[]string{"event"},
	)

	// ThrottledTotal counts login requests refused by the rate limiter
	ThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_login_throttled_total",
			Help: "Total number of login requests rejected for exceeding the rate limit.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AuthResultsTotal,
		RememberMeEventsTotal,
		ThrottledTotal,
	)
}

// RecordAuthResult counts an outcome, a nil error means result is meaningful
func RecordAuthResult(op string, result fmt.Stringer, err error) {
	if err != nil {
		AuthResultsTotal.WithLabelValues(op, resultError).Inc()
		return
	}
	AuthResultsTotal.WithLabelValues(op, result.String()).Inc()
}

func RecordRememberMe(event string) {
	RememberMeEventsTotal.WithLabelValues(event).Inc()
}

func RecordThrottled() {
	ThrottledTotal.Inc()
}
