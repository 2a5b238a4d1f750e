package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"purchase-orders", "purchase-orders"},
		{"a b/c", "a_b_c"},
		{"///", "run"},
		{"", "run"},
		{strings.Repeat("x", 80), strings.Repeat("x", 60)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in), tt.in)
	}
}

func TestLoggerAdapter_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig("run all")
	cfg.Dir = dir
	cfg.Console = false

	log, err := NewLoggerAdapter(cfg)
	require.NoError(t, err)

	log.WithField("report", "purchase-orders").Info("Pipeline started", "run_id", "abc")
	require.NoError(t, log.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_run_all.log"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Pipeline started"`)
	assert.Contains(t, string(data), `"report":"purchase-orders"`)
	assert.Contains(t, string(data), `"run_id":"abc"`)
}

func TestLoggerAdapter_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.WithFields(map[string]any{"run_id": "r1", "report": "x"}).Warn("Modal absent", "selector", "#m")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	ctx := entry.ContextMap()
	assert.Equal(t, "r1", ctx["run_id"])
	assert.Equal(t, "x", ctx["report"])
	assert.Equal(t, "#m", ctx["selector"])
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("ignored")
	assert.NoError(t, log.Close())
}
