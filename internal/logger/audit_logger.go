// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for persisted state.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogSlipPersisted logs a successful slip write.
func (al *AuditLogger) LogSlipPersisted(sessionID, slipID string, legCount int, backend string) {
	al.WithFields(logrus.Fields{
		"session_id": sessionID,
		"slip_id":    slipID,
		"leg_count":  legCount,
		"backend":    backend,
	}).Debug("Slip persisted")
}

// LogSlipDeleted logs removal of a stored slip.
func (al *AuditLogger) LogSlipDeleted(sessionID string, backend string) {
	al.WithFields(logrus.Fields{
		"session_id": sessionID,
		"backend":    backend,
	}).Debug("Slip deleted from store")
}

// LogPersistFailure logs a failed write that was queued for retry.
func (al *AuditLogger) LogPersistFailure(sessionID string, attempt int, err error) {
	al.WithFields(logrus.Fields{
		"session_id": sessionID,
		"attempt":    attempt,
	}).WithError(err).Warn("Slip persistence failed")
}

// LogPersistDropped logs a write abandoned because the retry queue is full.
func (al *AuditLogger) LogPersistDropped(sessionID string, queueSize int) {
	al.WithFields(logrus.Fields{
		"session_id": sessionID,
		"queue_size": queueSize,
	}).Error("Slip persistence dropped")
}

// LogRestoreSkipped logs legs that no longer pass validation on restore.
func (al *AuditLogger) LogRestoreSkipped(sessionID string, err error) {
	al.WithField("session_id", sessionID).WithError(err).Warn("Restored slip dropped invalid legs")
}

// LogTemplateSaved logs a new parlay template.
func (al *AuditLogger) LogTemplateSaved(templateID, name string, legCount int, totalOdds int) {
	al.WithFields(logrus.Fields{
		"template_id": templateID,
		"name":        name,
		"leg_count":   legCount,
		"total_odds":  totalOdds,
	}).Info("Template saved")
}

// LogTemplateDeleted logs removal of a template.
func (al *AuditLogger) LogTemplateDeleted(templateID string) {
	al.WithField("template_id", templateID).Info("Template deleted")
}
