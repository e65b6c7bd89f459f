package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level, jsonOutput bool) (*StdLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, JSONOutput: jsonOutput, Output: &buf})
	l.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{" warning ", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestStdLogger_Text(t *testing.T) {
	l, buf := newTestLogger(InfoLevel, false)

	l.Debug("hidden")
	l.Info("file done", "path", "a.js", "removed", 3)
	l.Warn("odd", "lonely", "k", "v")

	assert.Equal(t,
		"[2024-05-01 12:30:00] INFO: file done path=a.js removed=3\n"+
			"[2024-05-01 12:30:00] WARN: odd arg=lonely k=v\n",
		buf.String())
}

func TestStdLogger_SetLevel(t *testing.T) {
	l, buf := newTestLogger(ErrorLevel, false)
	l.Warn("dropped")
	assert.Empty(t, buf.String())

	l.SetLevel(DebugLevel)
	l.Debug("kept")
	assert.Contains(t, buf.String(), "DEBUG: kept")
}

func TestStdLogger_JSON(t *testing.T) {
	l, buf := newTestLogger(DebugLevel, false)
	l.SetJSONOutput(true)
	l.Error("failed", "path", "b.js", "iterations", 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "failed", entry["message"])
	assert.Equal(t, "b.js", entry["path"])
	assert.Equal(t, float64(2), entry["iterations"])
	assert.Equal(t, "2024-05-01 12:30:00", entry["timestamp"])
}

func TestStdLogger_JSONUnmarshalableValue(t *testing.T) {
	l, buf := newTestLogger(InfoLevel, true)
	l.Info("bad value", "ch", make(chan int))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "bad value", entry["message"])
	assert.NotContains(t, entry, "ch")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.SetLevel(DebugLevel)
	l.SetJSONOutput(true)
}

func TestProgressSpinner_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "scanning")
	s.Start()
	s.Progress("eliminating", 1, 4)
	s.Stop()
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestProgressSpinner_Animates(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "scanning")
	s.enabled = true

	s.Start()
	s.Progress("eliminating", 2, 4)
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "eliminating 2/4")
	assert.True(t, strings.HasSuffix(out, "\r\033[K"))
}
