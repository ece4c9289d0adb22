package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
// Every Record method is safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Order metrics
	OrderTransitionsTotal *prometheus.CounterVec
	OrderPaymentsTotal    *prometheus.CounterVec
	StockActionFailures   *prometheus.CounterVec
	CheckoutTotal         *prometheus.CounterVec

	// Inventory metrics
	InventoryPostingsTotal  *prometheus.CounterVec
	InventoryMovementsTotal *prometheus.CounterVec
	InventoryVoidsTotal     *prometheus.CounterVec
	InventoryPostDuration   *prometheus.HistogramVec

	// Audit metrics
	AuditFailuresTotal *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered on reg.
func NewWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "orderledger"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Order metrics
		OrderTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order",
				Name:      "transitions_total",
				Help:      "Total number of committed order status transitions",
			},
			[]string{"from", "to", "forced"},
		),
		OrderPaymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order",
				Name:      "payments_total",
				Help:      "Total number of recorded order payments",
			},
			[]string{"method", "payment_state"},
		),
		StockActionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order",
				Name:      "stock_action_failures_total",
				Help:      "Stock actions that failed after an order status change was committed",
			},
			[]string{"action"},
		),
		CheckoutTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "checkout",
				Name:      "total",
				Help:      "Total number of checkout attempts by result",
			},
			[]string{"result"},
		),

		// Inventory metrics
		InventoryPostingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "postings_total",
				Help:      "Total number of stock document postings by type and result",
			},
			[]string{"type", "result"},
		),
		InventoryMovementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "movements_total",
				Help:      "Total number of ledger movements applied",
			},
			[]string{"type"},
		),
		InventoryVoidsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "voids_total",
				Help:      "Total number of voided stock documents",
			},
			[]string{"type", "reversed"},
		),
		InventoryPostDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "post_duration_seconds",
				Help:      "Stock document posting duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"type"},
		),

		// Audit metrics
		AuditFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "failures_total",
				Help:      "Audit entries that could not be persisted",
			},
			[]string{"action"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOrderTransition records a committed order status change.
func (m *Metrics) RecordOrderTransition(from, to string, forced bool) {
	if m == nil {
		return
	}
	m.OrderTransitionsTotal.WithLabelValues(from, to, strconv.FormatBool(forced)).Inc()
}

// RecordPayment records a payment added to an order.
func (m *Metrics) RecordPayment(method, paymentState string) {
	if m == nil {
		return
	}
	m.OrderPaymentsTotal.WithLabelValues(method, paymentState).Inc()
}

// RecordStockActionFailure records a stock action that could not be applied.
func (m *Metrics) RecordStockActionFailure(action string) {
	if m == nil {
		return
	}
	m.StockActionFailures.WithLabelValues(action).Inc()
}

// RecordCheckout records a checkout attempt.
func (m *Metrics) RecordCheckout(result string) {
	if m == nil {
		return
	}
	m.CheckoutTotal.WithLabelValues(result).Inc()
}

// RecordPosting records a stock document posting.
func (m *Metrics) RecordPosting(docType, result string, applied int, duration time.Duration) {
	if m == nil {
		return
	}
	m.InventoryPostingsTotal.WithLabelValues(docType, result).Inc()
	m.InventoryPostDuration.WithLabelValues(docType).Observe(duration.Seconds())
	if applied > 0 {
		m.InventoryMovementsTotal.WithLabelValues(docType).Add(float64(applied))
	}
}

// RecordVoid records a voided stock document.
func (m *Metrics) RecordVoid(docType string, reversed bool) {
	if m == nil {
		return
	}
	m.InventoryVoidsTotal.WithLabelValues(docType, strconv.FormatBool(reversed)).Inc()
}

// RecordAuditFailure records an audit entry that was dropped.
func (m *Metrics) RecordAuditFailure(action string) {
	if m == nil {
		return
	}
	m.AuditFailuresTotal.WithLabelValues(action).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
