// Package feed fetches parlay suggestions from the recommendation service.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/parlay-slip/internal/config"
	"github.com/yourusername/parlay-slip/internal/logger"
	"github.com/yourusername/parlay-slip/internal/metrics"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/parlay"
)

const (
	suggestionsPath = "/api/parlay/suggestions"
	// AllSports requests suggestions without a sport filter
	AllSports = "all"
	// DefaultTop is how many suggestions Top returns when n <= 0
	DefaultTop = 3
)

var (
	ErrFeedUnavailable    = errors.New("suggestion feed unavailable")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrCircuitOpen        = errors.New("circuit breaker open")
)

// Client reads suggestions through a rate limited, retrying HTTP client and
// caches each sport's list for the configured TTL.
type Client struct {
	http    *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	cache   *cache.Cache
	log     *logger.FeedLogger
	metrics *metrics.Metrics
}

// NewClient creates a feed client from configuration. m may be nil.
func NewClient(cfg config.FeedConfig, base *logrus.Logger, m *metrics.Metrics) *Client {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpCfg.MaxRetries = cfg.RetryAttempts
	if cfg.RateLimit > 0 {
		httpCfg.RateLimit = cfg.RateLimit
	}
	return NewClientWithHTTP(cfg, NewRateLimitedHTTPClient(httpCfg, base.WithField("component", "feed_http")), base, m)
}

// NewClientWithHTTP creates a feed client around an existing HTTP client
func NewClientWithHTTP(cfg config.FeedConfig, httpClient *RateLimitedHTTPClient, base *logrus.Logger, m *metrics.Metrics) *Client {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		cache:   cache.New(ttl, 2*ttl),
		log:     logger.NewFeedLogger(base),
		metrics: m,
	}
}

func cacheKey(sport string) string {
	return strings.ToLower(normalizeSport(sport))
}

func normalizeSport(sport string) string {
	if sport == "" {
		return AllSports
	}
	return sport
}

// Suggestions returns the suggestions for sport, serving from cache when fresh
func (c *Client) Suggestions(ctx context.Context, sport string) ([]models.ParlaySuggestion, error) {
	start := time.Now()
	key := cacheKey(sport)

	if v, ok := c.cache.Get(key); ok {
		suggestions := v.([]models.ParlaySuggestion)
		c.metrics.RecordFeedRequest("hit", 0)
		c.log.LogFetch(sport, len(suggestions), true, 0)
		return copySuggestions(suggestions), nil
	}

	suggestions, err := c.fetch(ctx, normalizeSport(sport))
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.RecordFeedRequest("error", elapsed.Seconds())
		c.log.LogFetchError(sport, err)
		return nil, err
	}

	c.checkLegs(suggestions)
	c.cache.SetDefault(key, suggestions)
	c.metrics.RecordFeedRequest("miss", elapsed.Seconds())
	c.log.LogFetch(sport, len(suggestions), false, float64(elapsed.Microseconds())/1000)
	return copySuggestions(suggestions), nil
}

// copySuggestions returns a copy sharing no slices with the cache
func copySuggestions(in []models.ParlaySuggestion) []models.ParlaySuggestion {
	out := make([]models.ParlaySuggestion, len(in))
	for i, s := range in {
		s.Legs = append([]models.SuggestionLeg(nil), s.Legs...)
		out[i] = s
	}
	return out
}

// Top returns the first n suggestions for sport in feed order
func (c *Client) Top(ctx context.Context, sport string, n int) ([]models.ParlaySuggestion, error) {
	suggestions, err := c.Suggestions(ctx, sport)
	if err != nil {
		return nil, err
	}
	return Top(suggestions, n), nil
}

// Top returns the first n suggestions, DefaultTop when n <= 0
func Top(suggestions []models.ParlaySuggestion, n int) []models.ParlaySuggestion {
	if n <= 0 {
		n = DefaultTop
	}
	if n > len(suggestions) {
		n = len(suggestions)
	}
	return append([]models.ParlaySuggestion(nil), suggestions[:n]...)
}

// Suggestion finds a suggestion by id among the sport's cached list,
// fetching it when not cached.
func (c *Client) Suggestion(ctx context.Context, sport, id string) (*models.ParlaySuggestion, error) {
	suggestions, err := c.Suggestions(ctx, sport)
	if err != nil {
		return nil, err
	}
	for i := range suggestions {
		if suggestions[i].ID == id {
			s := suggestions[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSuggestionNotFound, id)
}

// Refresh drops the cached list for each sport and fetches it again
func (c *Client) Refresh(ctx context.Context, sports []string) error {
	var errs []error
	for _, sport := range sports {
		c.cache.Delete(cacheKey(sport))
		if _, err := c.Suggestions(ctx, sport); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sport, err))
		}
	}
	return errors.Join(errs...)
}

// CircuitOpen reports whether the feed's circuit breaker is rejecting requests
func (c *Client) CircuitOpen() bool {
	return c.http.IsOpen()
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

// checkLegs logs legs that will be rejected when added to a slip. They are
// kept so callers can report the rejection per leg.
func (c *Client) checkLegs(suggestions []models.ParlaySuggestion) {
	for _, s := range suggestions {
		for _, leg := range s.Legs {
			if _, err := parlay.NormalizeSuggestionLeg(leg); err != nil {
				c.log.LogSkippedLeg(s.ID, leg.ID, err)
			}
		}
	}
}

func (c *Client) fetch(ctx context.Context, sport string) ([]models.ParlaySuggestion, error) {
	q := url.Values{}
	if sport != AllSports {
		q.Set("sport", sport)
	}
	endpoint := c.baseURL + suggestionsPath
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.apiKey != "" {
		header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %s: %s", ErrFeedUnavailable, strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var payload models.SuggestionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: %s", ErrFeedUnavailable, payload.Message)
	}

	return payload.Suggestions, nil
}
