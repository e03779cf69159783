package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l := New(nil)
		assert.NotNil(t, l)
		assert.NotNil(t, l.Logger)
	})

	t.Run("creates text format logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "text", Output: buf})

		l.Info("test message")
		output := buf.String()
		assert.Contains(t, output, "test message")
		assert.False(t, strings.HasPrefix(output, "{"))
	})

	t.Run("filters below level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "warn", Format: "json", Output: buf})

		l.Info("hidden")
		assert.Empty(t, buf.String())
		l.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Level: "info", Format: "json", Output: buf})

	l.Named("poller").With("key", "value").Info("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "poller", entry["component"])
	assert.Equal(t, "test message", entry["msg"])
}

func TestLogger_CorrelationIDs(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Level: "info", Format: "json", Output: buf})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTaskID(ctx, "task-9")
	l.WithGroup("veo").InfoContext(ctx, "polled", "state", "processing")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "polled", entry["msg"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	group, ok := entry["veo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "processing", group["state"])
	assert.Equal(t, "req-1", group["request_id"])
	assert.Equal(t, "task-9", group["task_id"])
}

func TestLogger_Context(t *testing.T) {
	t.Run("ContextWithLogger and FromContext", func(t *testing.T) {
		l := New(&Config{Level: "info", Format: "json", Output: &bytes.Buffer{}})

		ctx := ContextWithLogger(context.Background(), l)
		assert.Equal(t, l, FromContext(ctx))
	})

	t.Run("FromContext returns default when not set", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input).String())
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	zl, err := NewZapLogger(&Config{Level: "warning", Format: "json", Output: buf})
	require.NoError(t, err)

	zl.Named("task-manager").Info("hidden")
	zl.Named("task-manager").Warn("job failed")
	require.NoError(t, zl.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "job failed", entry["msg"])
	assert.Equal(t, "task-manager", entry["logger"])
	assert.Equal(t, "warn", entry["level"])
}
