package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"error":   LogLevelError,
		"WARN":    LogLevelWarn,
		"warning": LogLevelWarn,
		" debug ": LogLevelDebug,
		"trace":   LogLevelTrace,
		"info":    LogLevelInfo,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLogLevel(name), "level %q", name)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Error("disk %s", "full")
	logger.Warn("summary parameter %q renamed", "Temp")
	logger.Info("merged %d rows", 2)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[ERROR] disk full")
	assert.Contains(t, lines[1], `[WARN] summary parameter "Temp" renamed`)
	assert.True(t, logger.Enabled(LogLevelWarn))
	assert.False(t, logger.Enabled(LogLevelInfo))
}
