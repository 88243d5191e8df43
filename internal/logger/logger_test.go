package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("nonsense")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewProductionUsesJSON(t *testing.T) {
	log, err := New(Options{Level: "warn", Environment: "production"})
	require.NoError(t, err)

	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "slip.log")
	log, err := New(Options{Level: "info", Environment: "production", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestSlipLoggerEvent(t *testing.T) {
	log, buf := setupTestLogger()
	slipLogger := NewSlipLogger(log)

	slipLogger.LogEvent("session_1", "add_leg", 2, 377, 47.73)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "betslip", logEntry["component"])
	assert.Equal(t, "session_1", logEntry["session_id"])
	assert.Equal(t, "add_leg", logEntry["event"])
	assert.Equal(t, float64(377), logEntry["total_odds"])
}

func TestSlipLoggerRejection(t *testing.T) {
	log, buf := setupTestLogger()
	slipLogger := NewSlipLogger(log)

	slipLogger.LogRejection("session_1", "add_leg", errors.New("duplicate selection"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "duplicate selection", logEntry["reason"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestSlipLoggerRoundRobin(t *testing.T) {
	log, buf := setupTestLogger()
	slipLogger := NewSlipLogger(log)

	slipLogger.LogRoundRobin("session_1", 4, 2, 6, 60)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(6), logEntry["combinations"])
	assert.Equal(t, float64(60), logEntry["total_stake"])
}

func TestAuditLoggerPersistFailure(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogPersistFailure("session_1", 3, errors.New("connection refused"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, float64(3), logEntry["attempt"])
	assert.Equal(t, "connection refused", logEntry["error"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestAuditLoggerTemplateSaved(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogTemplateSaved("tpl_1", "Sunday special", 3, 596)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "tpl_1", logEntry["template_id"])
	assert.Equal(t, "Sunday special", logEntry["name"])
}

func TestFeedLoggerFetch(t *testing.T) {
	log, buf := setupTestLogger()
	feedLogger := NewFeedLogger(log)

	feedLogger.LogFetch("NBA", 5, true, 1.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "feed", logEntry["component"])
	assert.Equal(t, true, logEntry["cache_hit"])
}
