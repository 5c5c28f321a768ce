package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "forensiq.log")
	l, err := New(Config{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	l.Info("session started")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session started")
}

func TestTestLoggerAssertions(t *testing.T) {
	tl := NewTestLogger()
	tl.Warn("skip ignored")
	tl.Warn("skip ignored")

	assert.Equal(t, 2, tl.Count(zapcore.WarnLevel, "skip"))
	tl.AssertLogged(t, zapcore.WarnLevel, "skip ignored")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "skip ignored")

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	tl := NewTestLogger()
	assert.Same(t, tl.Logger, OrNop(tl.Logger))
}
