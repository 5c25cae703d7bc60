package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

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
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestBacktestLoggerRunStarted(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log).WithRun("run_001")

	bl.LogRunStarted("2024-01-01", "2024-12-31", 10000, 250)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "backtest", logEntry["component"])
	assert.Equal(t, "run_001", logEntry["run_id"])
	assert.Equal(t, "2024-01-01", logEntry["start_date"])
	assert.Equal(t, float64(250), logEntry["races"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestBacktestLoggerRunCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogRunCompleted(100, 40, 35, 2, 10250.5, 3.2, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(40), logEntry["qualifying"])
	assert.Equal(t, 10250.5, logEntry["final_bankroll"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestBacktestLoggerRaceSkipped(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogRaceSkipped("race_123", "2024-03-01", "runner count must be positive, got 0")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "race_123", logEntry["race_id"])
	assert.Contains(t, logEntry["reason"], "runner count")
}

func TestBacktestLoggerRiskHalt(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogRiskHalt("daily_halted", "2024-03-01", 520, 500)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "daily_halted", logEntry["state"])
	assert.Equal(t, float64(500), logEntry["limit"])
}

func TestBacktestLoggerDebugSuppressedAtInfo(t *testing.T) {
	log, buf := setupTestLogger()
	log.SetLevel(logrus.InfoLevel)
	bl := NewBacktestLogger(log)

	bl.LogWagerSettled("race_1", "won", 3.0, 50, 100, 50, 10050)
	bl.LogQualification("race_1", true, []string{"all criteria met"})

	assert.Zero(t, buf.Len())
}

func TestNewLoggerFormats(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.Info("hello")
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "hello", logEntry["msg"])

	dev := newLogger(&bytes.Buffer{}, "bogus", "development")
	assert.Equal(t, logrus.InfoLevel, dev.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() { log.Info("dropped") })
}
