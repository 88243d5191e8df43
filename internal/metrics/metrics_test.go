package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	m := New()

	assert.NotNil(t, m.Registry())
	assert.IsType(t, &prometheus.Registry{}, m.Registry())

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestInstancesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.RecordEvent("add_leg", 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.EventsTotal.WithLabelValues("add_leg")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.EventsTotal.WithLabelValues("add_leg")))
}

func TestRecordRejection(t *testing.T) {
	m := New()

	m.RecordRejection("add_leg", "duplicate")
	m.RecordRejection("add_leg", "duplicate")
	m.RecordRejection("add_leg", "max_legs")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("add_leg", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("add_leg", "max_legs")))
}

func TestRecordPersist(t *testing.T) {
	m := New()

	m.RecordPersist(0.01, nil)
	m.RecordPersist(0.02, errors.New("down"))
	m.SetPersistQueueDepth(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailuresTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PersistQueueDepth))
}

func TestGauges(t *testing.T) {
	tests := []struct {
		name     string
		sessions int
	}{
		{name: "none", sessions: 0},
		{name: "some", sessions: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.SetActiveSessions(tt.sessions)
			assert.Equal(t, float64(tt.sessions), testutil.ToFloat64(m.ActiveSessions))
		})
	}
}

func TestRecordFeedRequest(t *testing.T) {
	m := New()

	m.RecordFeedRequest("hit", 0)
	m.RecordFeedRequest("miss", 0.2)
	m.RecordFeedRequest("error", 0.4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequestsTotal.WithLabelValues("error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordEvent("add_leg", 1)
		m.RecordRejection("add_leg", "duplicate")
		m.SetActiveSessions(1)
		m.RecordPersist(0.1, errors.New("x"))
		m.SetPersistQueueDepth(1)
		m.RecordRoundRobin(6)
		m.RecordFeedRequest("miss", 0.1)
		m.RecordHTTPRequest(http.MethodGet, "/v1/slips/{session}", http.StatusOK)
	})
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/v1/slips/{session}", http.StatusOK)
	m.RecordRoundRobin(6)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "parlay_slip_http_requests_total")
	assert.Contains(t, rec.Body.String(), `status="200"`)
	assert.Contains(t, rec.Body.String(), "parlay_slip_round_robin_combinations")
}

func BenchmarkRecordEvent(b *testing.B) {
	m := New()

	for i := 0; i < b.N; i++ {
		m.RecordEvent("add_leg", 3)
	}
}
