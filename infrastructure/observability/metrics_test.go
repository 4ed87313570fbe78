package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_ObserveQuery(t *testing.T) {
	c := NewCollector("chronozoom")

	c.ObserveQuery("bitmask", 12, true, 5*time.Millisecond)
	c.ObserveQuery("bitmask", 3, false, time.Millisecond)
	c.ObserveQuery("naive", 3, false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Truncations.WithLabelValues("bitmask")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Truncations.WithLabelValues("naive")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.QueryRows))
}

func TestCollector_ObserveCascade(t *testing.T) {
	c := NewCollector("chronozoom")

	c.ObserveCascade("timeline", 7, false)
	c.ObserveCascade("timeline", 2, true)

	assert.Equal(t, 9.0, testutil.ToFloat64(c.CascadeDeleted.WithLabelValues("timeline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CascadeFailures.WithLabelValues("timeline")))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("chronozoom")
	b := NewCollector("chronozoom")
	a.ObserveHTTP("GET", "/api/v1/timelines", 200, time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.HTTPRequests.WithLabelValues("GET", "/api/v1/timelines", "200")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("chronozoom")
	c.ObserveCascade("exhibit", 1, false)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chronozoom_cascade_deleted_rows_total")
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
