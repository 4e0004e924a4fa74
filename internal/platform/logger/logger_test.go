package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/drillbot/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in    string
		want  slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", slog.LevelInfo, false},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		level, known := ParseLevel(tt.in)
		assert.Equal(t, tt.want, level, "level %q", tt.in)
		assert.Equal(t, tt.known, known, "level %q", tt.in)
	}
}

// Tests below replace the process-wide default logger, so they do not run in parallel.

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("deck saved", "alias", "verbs")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "deck saved", entry["msg"])
	assert.Equal(t, "verbs", entry["alias"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, config.LogConfig{Level: "debug", Format: "text"})

	slog.Debug("via default", "alias", "nouns")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "alias=nouns")
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Level: "loud", Format: "text"})

	assert.Contains(t, buf.String(), "invalid log level configured")
	assert.Contains(t, buf.String(), "configured_level=loud")

	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
