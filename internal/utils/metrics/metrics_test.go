package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// createTestMetrics creates metrics on a private registry so tests never
// collide with the default one.
func createTestMetrics(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.NewRegistry())
}

func TestNewWithRegistry(t *testing.T) {
	m := createTestMetrics("")

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.OrderTransitionsTotal)
	assert.NotNil(t, m.InventoryPostingsTotal)
	assert.NotNil(t, m.AuditFailuresTotal)
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m := createTestMetrics("http_test")

	m.RecordHTTPRequest("POST", "/api/v1/checkout", http.StatusCreated, 20*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/checkout", http.StatusConflict, 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/checkout", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/checkout", "4xx")))
}

func TestMetrics_RecordOrderTransition(t *testing.T) {
	m := createTestMetrics("order_test")

	m.RecordOrderTransition("CONFIRMED", "PACKING", false)
	m.RecordOrderTransition("SHIPPED", "CANCELED", true)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrderTransitionsTotal.WithLabelValues("CONFIRMED", "PACKING", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrderTransitionsTotal.WithLabelValues("SHIPPED", "CANCELED", "true")))
}

func TestMetrics_RecordPosting(t *testing.T) {
	m := createTestMetrics("inventory_test")

	t.Run("counts applied movements", func(t *testing.T) {
		m.RecordPosting("GRN", "success", 3, time.Millisecond)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.InventoryPostingsTotal.WithLabelValues("GRN", "success")))
		assert.Equal(t, float64(3), testutil.ToFloat64(m.InventoryMovementsTotal.WithLabelValues("GRN")))
	})

	t.Run("retry applies nothing", func(t *testing.T) {
		m.RecordPosting("ISSUE", "insufficient_stock", 0, time.Millisecond)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.InventoryPostingsTotal.WithLabelValues("ISSUE", "insufficient_stock")))
		assert.Equal(t, float64(0), testutil.ToFloat64(m.InventoryMovementsTotal.WithLabelValues("ISSUE")))
	})
}

func TestMetrics_BestEffortCounters(t *testing.T) {
	m := createTestMetrics("best_effort_test")

	m.RecordStockActionFailure("RESERVE")
	m.RecordAuditFailure("order.status_changed")
	m.RecordVoid("GRN", true)
	m.RecordCheckout("created")
	m.RecordPayment("cash", "PARTIAL")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.StockActionFailures.WithLabelValues("RESERVE")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditFailuresTotal.WithLabelValues("order.status_changed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InventoryVoidsTotal.WithLabelValues("GRN", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrderPaymentsTotal.WithLabelValues("cash", "PARTIAL")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
		m.RecordOrderTransition("DRAFT", "CANCELED", false)
		m.RecordPosting("GRN", "success", 1, time.Millisecond)
		m.RecordStockActionFailure("DEDUCT")
		m.RecordAuditFailure("order.created")
	})
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{409, "4xx"},
		{500, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusCodeToString(tt.code))
	}
}
