// Package observability holds the Prometheus collectors of the auth core.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	TokenIssued   = "issued"
	TokenReused   = "reused"
	TokenRevoked  = "revoked"
	TokenRejected = "rejected"

	ResetRequested = "requested"
	ResetCompleted = "completed"
	ResetRejected  = "rejected"

	DenyUnauthenticated = "unauthenticated"
	DenyForbidden       = "forbidden"
	DenySelfAction      = "self_action"
)

// Metrics groups the counters. A nil *Metrics is valid and records nothing,
// which keeps services usable in tests without a registry.
type Metrics struct {
	registry *prometheus.Registry

	logins       *prometheus.CounterVec
	apiTokens    *prometheus.CounterVec
	resets       *prometheus.CounterVec
	denials      *prometheus.CounterVec
	housekeeping *prometheus.CounterVec
}

// NewMetrics builds a fresh registry carrying the Go and process collectors
// plus the auth counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_auth_logins_total",
			Help: "Session login attempts by result",
		}, []string{"result"}),
		apiTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_auth_api_tokens_total",
			Help: "API token lifecycle events",
		}, []string{"event"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_auth_password_resets_total",
			Help: "Password reset events",
		}, []string{"event"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_auth_authorization_denials_total",
			Help: "Authorization guard denials by reason",
		}, []string{"reason"}),
		housekeeping: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_auth_housekeeping_deleted_total",
			Help: "Rows removed by housekeeping",
		}, []string{"table"}),
	}
	reg.MustRegister(m.logins, m.apiTokens, m.resets, m.denials, m.housekeeping)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) APIToken(event string) {
	if m == nil {
		return
	}
	m.apiTokens.WithLabelValues(event).Inc()
}

func (m *Metrics) PasswordReset(event string) {
	if m == nil {
		return
	}
	m.resets.WithLabelValues(event).Inc()
}

func (m *Metrics) Denial(reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(reason).Inc()
}

func (m *Metrics) HousekeepingDeleted(table string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.housekeeping.WithLabelValues(table).Add(float64(n))
}
