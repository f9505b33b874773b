// Package metrics exposes Prometheus metrics for the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeError              = "error"
	OutcomeNotFound           = "not_found"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeLocked             = "locked"
	OutcomeDuplicate          = "duplicate"
	OutcomeExpired            = "expired"
)

const namespace = "ticket_booking_auth"

// Metrics holds the service collectors and the registry they are exposed from.
// All Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	passwordResets  *prometheus.CounterVec
	otpIssued       prometheus.Counter
	logouts         prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registration attempts",
			},
			[]string{"outcome"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts",
			},
			[]string{"outcome"},
		),
		passwordResets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "password_resets_total",
				Help:      "Total number of password reset attempts",
			},
			[]string{"outcome"},
		),
		otpIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "Total number of password reset codes issued",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Total number of revoked session tokens",
		}),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations,
		m.logins,
		m.passwordResets,
		m.otpIssued,
		m.logouts,
		m.requestDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPasswordReset(outcome string) {
	if m == nil {
		return
	}
	m.passwordResets.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordOTPIssued() {
	if m == nil {
		return
	}
	m.otpIssued.Inc()
}

func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// Middleware observes request durations labelled by the matched chi route
// pattern, so path parameters do not blow up label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
