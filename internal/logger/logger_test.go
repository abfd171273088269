package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log
	log = New(NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	t.Cleanup(func() { log = prev })
	return &buf
}

func TestInit(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev })

	Init()
	assert.NotNil(t, log)
}

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for env, want := range tests {
		t.Setenv("LOG_LEVEL", env)
		assert.Equal(t, want, levelFromEnv(), "LOG_LEVEL=%q", env)
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"info", Info, "INFO"},
		{"warn", Warn, "WARN"},
		{"error", Error, "ERROR"},
		{"debug", Debug, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, slog.LevelDebug)

			tt.log("wallet mutation", "payment_id", "p-1", "amount", 1000)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, "wallet mutation", line["msg"])
			assert.Equal(t, "p-1", line["payment_id"])
			assert.Equal(t, float64(1000), line["amount"])
		})
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	Debug("noisy")

	assert.Empty(t, buf.String())
}
