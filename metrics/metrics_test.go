package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/":                              "/",
		"/metrics":                       "/metrics",
		"/uploads/a.png":                 "/uploads",
		"/api/health":                    "/api/health",
		"/api/products/64b7f0c2a1":       "/api/products/:id",
		"/api/gallery/featured":          "/api/gallery/featured",
		"/api/orders/64b7f0c2a1/status":  "/api/orders/:id/status",
		"/api/orders/64b7f0c2a1/receipt": "/api/orders/:id/receipt",
		"/api/auth/login":                "/api/auth/login",
		"/api/upload/single":             "/api/upload/single",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalPath(in), in)
	}
}

func TestInstrumentHandlerCountsByStatus(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cart", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cart", "418"))

	assert.Equal(t, before+1, after)
}

func TestHandlerExposesOrderCounters(t *testing.T) {
	RecordOrderPlaced(true)
	RecordOrderRejected("INSUFFICIENT_STOCK")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `blackline_orders_placed_total{owner="guest"}`))
	assert.True(t, strings.Contains(body, `blackline_orders_rejected_total{code="INSUFFICIENT_STOCK"}`))
}
