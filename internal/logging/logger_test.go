package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("default hides info and time", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, false, "")
		log.Info("hidden")
		log.Warn("shown", "component", "Tracker")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=shown component=Tracker")
		assert.NotContains(t, out, "time=")
	})

	t.Run("debug adds source", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, true, "error")
		log.Debug("details")

		out := buf.String()
		assert.Contains(t, out, "msg=details")
		assert.Contains(t, out, "source=")
		assert.Contains(t, out, "logger_test.go")
	})
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/session.go", shortPath("/home/dev/src/mangonel/internal/usecase/session.go"))
	assert.Equal(t, "main.go", shortPath("/opt/other/main.go"))
}
