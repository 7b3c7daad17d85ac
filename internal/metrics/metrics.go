package metrics

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests       *prometheus.CounterVec
	Registrations  prometheus.Counter
	ConnectEvents  *prometheus.CounterVec
	MessagesSent   prometheus.Counter
	MessageStates  *prometheus.CounterVec
	PasswordResets *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanosns_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "path", "status"},
		),
		Registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nanosns_registrations_total",
				Help: "Total number of registered accounts",
			},
		),
		ConnectEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanosns_connect_events_total",
				Help: "Total number of friend requests sent and accepted",
			},
			[]string{"event"},
		),
		MessagesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nanosns_messages_sent_total",
				Help: "Total number of successfully sent messages",
			},
		),
		MessageStates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanosns_message_state_changes_total",
				Help: "Total number of messages moved to the read or checked state",
			},
			[]string{"state"},
		),
		PasswordResets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanosns_password_resets_total",
				Help: "Total number of password reset tokens issued and consumed",
			},
			[]string{"event"},
		),
	}

	reg.MustRegister(
		m.Requests,
		m.Registrations,
		m.ConnectEvents,
		m.MessagesSent,
		m.MessageStates,
		m.PasswordResets,
	)
	return m
}

func (m *Metrics) IncRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// IncConnect counts a connection event, "requested" or "accepted"
func (m *Metrics) IncConnect(event string) {
	if m == nil {
		return
	}
	m.ConnectEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) IncMessageSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

// AddMessageState counts n messages moved to state, "read" or "checked"
func (m *Metrics) AddMessageState(state string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.MessageStates.WithLabelValues(state).Add(float64(n))
}

// IncPasswordReset counts a token event, "issued" or "consumed"
func (m *Metrics) IncPasswordReset(event string) {
	if m == nil {
		return
	}
	m.PasswordResets.WithLabelValues(event).Inc()
}

// Middleware counts every request by its route pattern rather than the raw path
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if m == nil {
				return err
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.Requests.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
