package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level zerolog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&buf, level), &buf
}

// lastEntry decodes the final JSON line written to buf.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			log := New(env)
			require.NotNil(t, log)
			assert.NotNil(t, log.GetZerolog())
		})
	}
}

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		env   string
		level string
		want  zerolog.Level
	}{
		{env: "development", level: "", want: zerolog.DebugLevel},
		{env: "production", level: "", want: zerolog.InfoLevel},
		{env: "production", level: "warn", want: zerolog.WarnLevel},
		{env: "development", level: "ERROR", want: zerolog.ErrorLevel},
		{env: "production", level: "chatty", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveLevel(tt.env, tt.level))
		})
	}
}

func TestLevels(t *testing.T) {
	log, buf := newBufferLogger(zerolog.DebugLevel)

	log.Debug("debug message", map[string]interface{}{"key1": "value1"})
	assert.Equal(t, "debug", lastEntry(t, buf)["level"])
	assert.Equal(t, "value1", lastEntry(t, buf)["key1"])

	log.Info("info message", map[string]interface{}{"count": 42})
	entry := lastEntry(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(42), entry["count"])

	log.Warn("warn message", nil)
	assert.Equal(t, "warn", lastEntry(t, buf)["level"])

	log.Error("error message", errors.New("boom"), map[string]interface{}{"op": "lookup"})
	entry = lastEntry(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "lookup", entry["op"])
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(zerolog.WarnLevel)

	log.Debug("hidden", nil)
	log.Info("hidden", nil)
	assert.Empty(t, buf.String())

	log.Warn("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestChildLoggers(t *testing.T) {
	base, buf := newBufferLogger(zerolog.InfoLevel)

	base.WithRequestID("req-123").
		WithComponent("compliance").
		WithCheckID("chk-9").
		With(map[string]interface{}{"district": "R1"}).
		Info("evaluated", nil)

	entry := lastEntry(t, buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "compliance", entry["component"])
	assert.Equal(t, "chk-9", entry["check_id"])
	assert.Equal(t, "R1", entry["district"])

	base.Info("plain", nil)
	entry = lastEntry(t, buf)
	assert.NotContains(t, entry, "request_id", "parent logger must not inherit child fields")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("discarded", map[string]interface{}{"k": "v"})
	log.Error("discarded", errors.New("x"), nil)
}
