// Package logger provides suggestion feed logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// FeedLogger provides dedicated logging for the suggestion feed client.
type FeedLogger struct {
	*logrus.Entry
}

// NewFeedLogger creates a new feed logger.
func NewFeedLogger(baseLogger *logrus.Logger) *FeedLogger {
	return &FeedLogger{
		Entry: baseLogger.WithField("component", "feed"),
	}
}

// LogFetch logs a completed suggestion fetch.
func (fl *FeedLogger) LogFetch(sport string, count int, cacheHit bool, latencyMs float64) {
	fl.WithFields(logrus.Fields{
		"sport":      sport,
		"count":      count,
		"cache_hit":  cacheHit,
		"latency_ms": latencyMs,
	}).Debug("Suggestions fetched")
}

// LogFetchError logs a failed suggestion fetch.
func (fl *FeedLogger) LogFetchError(sport string, err error) {
	fl.WithField("sport", sport).WithError(err).Warn("Suggestion fetch failed")
}

// LogSkippedLeg logs a feed leg that could not be converted.
func (fl *FeedLogger) LogSkippedLeg(suggestionID, legID string, err error) {
	fl.WithFields(logrus.Fields{
		"suggestion_id": suggestionID,
		"leg_id":        legID,
	}).WithError(err).Debug("Skipped unusable suggestion leg")
}
