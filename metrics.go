package authentication

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects authentication and HTTP counters for Prometheus.
type Metrics struct {
	loginAttempts *prometheus.CounterVec
	registrations *prometheus.CounterVec
	httpResponses *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg and returns them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Local registrations by outcome.",
		}, []string{"outcome"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}
	reg.MustRegister(m.loginAttempts, m.registrations, m.httpResponses)
	return m
}

// RecordLogin records a login attempt outcome for a provider.
func (m *Metrics) RecordLogin(provider Provider, success bool) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(string(provider), outcome(success)).Inc()
}

// RecordRegistration records a local registration outcome.
func (m *Metrics) RecordRegistration(success bool) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome(success)).Inc()
}

// RecordResponse records an HTTP response status code.
func (m *Metrics) RecordResponse(statusCode int) {
	if m == nil {
		return
	}
	m.httpResponses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// MetricsHandler returns the Prometheus scrape handler for the registry.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
