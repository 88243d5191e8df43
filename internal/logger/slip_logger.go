// Package logger provides slip-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// SlipLogger provides dedicated logging for bet slip operations.
type SlipLogger struct {
	*logrus.Entry
}

// NewSlipLogger creates a new slip logger.
func NewSlipLogger(baseLogger *logrus.Logger) *SlipLogger {
	return &SlipLogger{
		Entry: baseLogger.WithField("component", "betslip"),
	}
}

// LogEvent logs an applied slip event and the resulting price.
func (sl *SlipLogger) LogEvent(sessionID, event string, legCount int, totalOdds int, payout float64) {
	sl.WithFields(logrus.Fields{
		"session_id": sessionID,
		"event":      event,
		"leg_count":  legCount,
		"total_odds": totalOdds,
		"payout":     payout,
	}).Debug("Slip event applied")
}

// LogRejection logs an event refused by the slip rules.
func (sl *SlipLogger) LogRejection(sessionID, event string, err error) {
	sl.WithFields(logrus.Fields{
		"session_id": sessionID,
		"event":      event,
		"reason":     err.Error(),
	}).Info("Slip event rejected")
}

// LogRoundRobin logs a round robin enumeration.
func (sl *SlipLogger) LogRoundRobin(sessionID string, poolSize, comboSize, combinations int, totalStake float64) {
	sl.WithFields(logrus.Fields{
		"session_id":   sessionID,
		"pool_size":    poolSize,
		"combo_size":   comboSize,
		"combinations": combinations,
		"total_stake":  totalStake,
	}).Info("Round robin generated")
}

// LogSessionEvicted logs an idle session dropped from memory.
func (sl *SlipLogger) LogSessionEvicted(sessionID string, idleSeconds float64) {
	sl.WithFields(logrus.Fields{
		"session_id":   sessionID,
		"idle_seconds": idleSeconds,
	}).Debug("Idle session evicted")
}
