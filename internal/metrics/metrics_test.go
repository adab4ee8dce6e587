package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveRequest("send", time.Now(), nil)
	m.ObserveRequest("send", time.Now(), errors.New("boom"))
	m.ObserveRequest("send", time.Now(), nil)
	m.ObserveBroadcast("send")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("send", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("send", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues("send")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("info", time.Now(), nil)
		m.ObserveBroadcast("swap")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveBroadcast("swap")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `trader_broadcasts_total{kind="swap"} 1`)
}
