package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/parlay-slip/internal/config"
	"github.com/yourusername/parlay-slip/internal/metrics"
	"github.com/yourusername/parlay-slip/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testHTTPConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 1
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New()
	log := quietLogger()
	httpClient := NewRateLimitedHTTPClient(testHTTPConfig(), logrus.NewEntry(log))
	c := NewClientWithHTTP(config.FeedConfig{BaseURL: srv.URL, CacheTTLSeconds: 60, APIKey: "k"}, httpClient, log, m)
	return c, m
}

func suggestionsBody(ids ...string) models.SuggestionsResponse {
	resp := models.SuggestionsResponse{Success: true}
	for _, id := range ids {
		resp.Suggestions = append(resp.Suggestions, models.ParlaySuggestion{
			ID:   id,
			Name: "Parlay " + id,
			Legs: []models.SuggestionLeg{{ID: id + "-1", GameID: "g1", Market: "h2h", Odds: "+150"}},
		})
	}
	resp.Count = len(resp.Suggestions)
	return resp
}

func TestSuggestionsFetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, suggestionsPath, r.URL.Path)
		assert.Equal(t, "NBA", r.URL.Query().Get("sport"))
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode(suggestionsBody("p1", "p2"))
	})

	ctx := context.Background()
	first, err := c.Suggestions(ctx, "NBA")
	require.NoError(t, err)
	second, err := c.Suggestions(ctx, "nba")
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second lookup is served from cache")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequestsTotal.WithLabelValues("miss")))
}

func TestSuggestionsAllSportsOmitsFilter(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("sport"))
		json.NewEncoder(w).Encode(suggestionsBody("p1"))
	})

	got, err := c.Suggestions(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSuggestionsUnsuccessfulPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.SuggestionsResponse{Success: false, Message: "no games today"})
	})

	_, err := c.Suggestions(context.Background(), "NFL")
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "no games today")
}

func TestSuggestionsClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad sport", http.StatusBadRequest)
	})

	_, err := c.Suggestions(context.Background(), "CURLING")
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequestsTotal.WithLabelValues("error")))
}

func TestSuggestionsServerErrorRetriedThenOpensBreaker(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx := context.Background()
	_, err := c.Suggestions(ctx, "NBA")
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "one retry after the first attempt")

	_, err = c.Suggestions(ctx, "NBA")
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.True(t, c.CircuitOpen())

	_, err = c.Suggestions(ctx, "NBA")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(4), calls.Load(), "open breaker short-circuits requests")
}

func TestCircuitBreakerHalfOpensAfterCooldown(t *testing.T) {
	healthy := atomic.Bool{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(suggestionsBody("p1"))
	})

	now := time.Now()
	c.http.now = func() time.Time { return now }

	ctx := context.Background()
	c.Suggestions(ctx, "NBA")
	c.Suggestions(ctx, "NBA")
	require.True(t, c.http.IsOpen())

	healthy.Store(true)
	now = now.Add(time.Minute)
	assert.False(t, c.http.IsOpen())

	got, err := c.Suggestions(ctx, "NBA")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.False(t, c.http.IsOpen())
}

func TestTopAndSuggestion(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(suggestionsBody("p1", "p2", "p3", "p4"))
	})
	ctx := context.Background()

	top, err := c.Top(ctx, AllSports, 0)
	require.NoError(t, err)
	require.Len(t, top, DefaultTop)
	assert.Equal(t, "p1", top[0].ID)

	top, err = c.Top(ctx, AllSports, 10)
	require.NoError(t, err)
	assert.Len(t, top, 4)

	s, err := c.Suggestion(ctx, AllSports, "p3")
	require.NoError(t, err)
	assert.Equal(t, "Parlay p3", s.Name)

	_, err = c.Suggestion(ctx, AllSports, "missing")
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestRefreshRefetches(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(suggestionsBody("p1"))
	})
	ctx := context.Background()

	_, err := c.Suggestions(ctx, "NBA")
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx, []string{"NBA", "NFL"}))

	assert.Equal(t, int32(3), calls.Load())
}

func TestTopPure(t *testing.T) {
	list := suggestionsBody("a", "b").Suggestions

	assert.Len(t, Top(list, 1), 1)
	assert.Len(t, Top(list, 5), 2)
	assert.Len(t, Top(nil, 3), 0)
}

func TestCallerEditsDoNotReachCache(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(suggestionsBody("p1", "p2", "p3", "p4"))
	})
	ctx := context.Background()

	list, err := c.Suggestions(ctx, "NBA")
	require.NoError(t, err)
	list[0].Name = "edited"
	list[0].Legs[0].Odds = "+999"

	top, err := c.Top(ctx, "NBA", 2)
	require.NoError(t, err)
	top[1].ID = "edited"
	_ = append(top, models.ParlaySuggestion{ID: "appended"})

	again, err := c.Suggestions(ctx, "NBA")
	require.NoError(t, err)
	require.Len(t, again, 4)
	assert.Equal(t, "Parlay p1", again[0].Name)
	assert.Equal(t, "+150", again[0].Legs[0].Odds)
	assert.Equal(t, "p2", again[1].ID)
	assert.Equal(t, "p3", again[2].ID)
	assert.Equal(t, int32(1), calls.Load())
}
