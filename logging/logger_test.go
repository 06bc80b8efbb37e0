package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture builds a BotLogger writing JSON lines into a buffer.
func capture(level LogLevel) (*BotLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestBotLogger_KeyValueArgs(t *testing.T) {
	l, buf := capture(LogLevelInfo)

	l.Info("listening", "addr", ":8000", "geo_provider", "demo")

	entry := lastEntry(t, buf)
	assert.Equal(t, "listening", entry["msg"])
	assert.Equal(t, ":8000", entry["addr"])
	assert.Equal(t, "demo", entry["geo_provider"])
}

func TestBotLogger_DanglingKey(t *testing.T) {
	l, buf := capture(LogLevelInfo)

	l.Info("oops", "orphan")

	entry := lastEntry(t, buf)
	assert.Equal(t, "oops", entry["msg"])
	assert.Equal(t, "orphan", entry["!BADKEY"])
}

func TestBotLogger_ContextAttrs(t *testing.T) {
	l, buf := capture(LogLevelInfo)
	l = l.WithComponent("policy").WithSession("s1").WithContext("region", "us")

	l.Warn("slow turn", "latency_ms", 120)

	entry := lastEntry(t, buf)
	assert.Equal(t, "policy", entry["component"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "us", entry["region"])
	assert.Equal(t, float64(120), entry["latency_ms"])
}

func TestBotLogger_LevelFilter(t *testing.T) {
	l, buf := capture(LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden too")
	assert.Zero(t, buf.Len())

	l.Error("visible", "error", "boom")
	entry := lastEntry(t, buf)
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
}

func TestBotLogger_LogTurn(t *testing.T) {
	l, buf := capture(LogLevelInfo)

	l.LogTurn("s1", "get_forecast", 0.91, "replied", 42*time.Millisecond)

	entry := lastEntry(t, buf)
	assert.Equal(t, "Turn completed", entry["msg"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "get_forecast", entry["intent"])
	assert.Equal(t, 0.91, entry["confidence"])
	assert.Equal(t, "replied", entry["state"])
}

func TestBotLogger_LogUpstreamCall(t *testing.T) {
	l, buf := capture(LogLevelInfo)

	l.LogUpstreamCall("geocode", 10*time.Millisecond, nil)
	entry := lastEntry(t, buf)
	assert.Equal(t, "Upstream call completed", entry["msg"])
	assert.Equal(t, "geocode", entry["service"])
	assert.Equal(t, true, entry["success"])

	l.LogUpstreamCall("forecast", 10*time.Millisecond, errors.New("timeout"))
	entry = lastEntry(t, buf)
	assert.Equal(t, "Upstream call failed", entry["msg"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestSlogAdapter_KeyValueArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, nil)))

	l.Info("hello", "who", "world")

	entry := lastEntry(t, buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "world", entry["who"])
}
