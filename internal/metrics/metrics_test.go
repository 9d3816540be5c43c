package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	t.Parallel()

	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/products/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for _, path := range []string{"/api/products/1", "/api/products/2", "/api/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/fail", "400")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

func TestBusinessCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.AuthEvent("login", true)
	m.AuthEvent("login", false)
	m.AuthEvent("login", false)
	m.Purchase("success", "balance", decimal.RequireFromString("40.50"))
	m.Purchase("insufficient_balance", "balance", decimal.RequireFromString("150"))
	m.SessionsPruned(3)
	m.SessionsPruned(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchases.WithLabelValues("success")))
	assert.Equal(t, 40.5, testutil.ToFloat64(m.purchaseAmount.WithLabelValues("balance")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsPruned))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.AuthEvent("login", true)
		nilMetrics.Purchase("success", "balance", decimal.Zero)
		nilMetrics.SessionsPruned(1)
	})
}
