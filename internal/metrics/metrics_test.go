package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCatalogFetch(t *testing.T) {
	m := NewMetrics()
	m.RecordCatalogFetch("sqlite", "testDefinitions", nil, 10*time.Millisecond)
	m.RecordCatalogFetch("sqlite", "testDefinitions", errors.New("boom"), time.Millisecond)
	m.RecordCatalogFetch("sqlite", "testDefinitions", nil, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogFetches.WithLabelValues("sqlite", "testDefinitions", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogFetches.WithLabelValues("sqlite", "testDefinitions", "error")))
}

func TestFormMetrics(t *testing.T) {
	m := NewMetrics()
	m.SetFormsOpen(3)
	m.RecordFormOutcome(OutcomeSubmitted)
	m.RecordFormOutcome(OutcomeInvalid)
	m.RecordFormOutcome(OutcomeInvalid)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.FormsOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FormOutcomes.WithLabelValues(OutcomeInvalid)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCatalogFetch("remote", "testCases", nil, time.Second)
		m.SetFormsOpen(1)
		m.RecordFormOutcome(OutcomeCancelled)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/items/:id", "204")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "nebula_dq_http_requests_total")
}
