package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	return rec.Code
}

func TestHealthReportsStats(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "slip-server",
		Version:     "1.2.3",
		Stats: func() map[string]interface{} {
			return map[string]interface{}{"sessions": 4}
		},
	})

	var resp HealthResponse
	status := get(t, s.Handler(), "/health", &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, float64(4), resp.Stats["sessions"])

	status = get(t, s.Handler(), "/live", &resp)
	assert.Equal(t, http.StatusOK, status)
}

func TestReadyChecks(t *testing.T) {
	storeErr := errors.New("connection refused")
	var storeDown bool
	s := NewServer(Config{
		ServiceName: "slip-server",
		Checks: map[string]Pinger{
			"store": PingFunc(func(context.Context) error {
				if storeDown {
					return storeErr
				}
				return nil
			}),
			"skipped": nil,
		},
	})

	var resp ReadyResponse
	status := get(t, s.Handler(), "/ready", &resp)
	assert.Equal(t, http.StatusServiceUnavailable, status, "not ready until marked")
	assert.Equal(t, "not_ready", resp.Checks["service"])

	s.SetReady(true)
	resp = ReadyResponse{}
	status = get(t, s.Handler(), "/ready", &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]string{"service": "ok", "store": "ok"}, resp.Checks)

	storeDown = true
	resp = ReadyResponse{}
	status = get(t, s.Handler(), "/ready", &resp)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "error: connection refused", resp.Checks["store"])
}
