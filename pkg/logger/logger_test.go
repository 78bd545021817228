package logger

import (
	"bytes"
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSlogLogger_SetLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"warn", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"bogus", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			l := New(Options{Stdout: &bytes.Buffer{}})
			l.SetLogLevel(tt.in)
			assert.Equal(t, tt.want, l.GetLogLevel())
		})
	}
}

func TestSlogLogger_Output(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Options{Stdout: &buf})

	l.Debug("hidden")
	l.Error("dial failed", errors.New("refused"))
	l.SetLogLevel("trace")
	l.Trace("frame")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=refused")
	assert.Contains(t, out, "level=TRACE")
}

func TestPrefixedLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewPrefixedLogger(New(Options{Stdout: &buf}), "chat")
	l.Info("connected")

	assert.Contains(t, buf.String(), `msg="[chat] connected"`)
}

func TestPrefixedLogger_Nested(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewPrefixedLogger(NewPrefixedLogger(New(Options{Stdout: &buf}), "emotes"), "bttv")
	l.Warn("fetch failed")

	assert.Contains(t, buf.String(), `msg="[emotes][bttv] fetch failed"`)
}
