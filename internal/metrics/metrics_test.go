package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Fetch("bed", SourceLive)
	m.Fetch("bed", SourceLive)
	m.Fetch("bed", SourceSnapshot)
	m.Action("bed", "delete", "deleted")
	m.Replayed(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.fetches.WithLabelValues("bed", "live")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fetches.WithLabelValues("bed", "snapshot")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actions.WithLabelValues("bed", "delete", "deleted")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.replayed))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hms_listview_fetches_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Fetch("bed", SourceLive)
	m.Action("bed", "add", "ok")
	m.Replayed(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
