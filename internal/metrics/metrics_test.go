package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/wallets/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/wallets/:id", "204"))
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+strings.Repeat("a", i+1), nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/wallets/:id", "204"))
	assert.Equal(t, float64(3), after-before)
}

func TestMiddleware_Unmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))-before)
}

func TestHandler_ExposesLedgerMetrics(t *testing.T) {
	LedgerEntriesTotal.WithLabelValues("CREDIT", "TOPUP").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `escrow_ledger_entries_total{kind="CREDIT",reason="TOPUP"}`)
}
