package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("boom") }

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithLoggerRoundTrip(t *testing.T) {
	logger := New(&bytes.Buffer{}, true, slog.LevelInfo)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, slog.LevelInfo)

	LogError(logger, "fetch failed", errors.New("timeout"), slog.String("url", "http://feed"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "fetch failed", entry["msg"])
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "http://feed", entry["url"])
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, slog.LevelInfo)

	LogOperation(logger, "feed_cycle", slog.Int("pushed", 3))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "feed_cycle", entry["operation"])
	assert.Equal(t, float64(3), entry["pushed"])
}

func TestLogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, slog.LevelInfo)

	LogHTTPRequest(logger, "GET", "/healthz", 200, 1.5)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/healthz", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, 1.5, entry["duration_ms"])
}

func TestSafeCloseWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, slog.LevelInfo)

	SafeCloseWithLogging(failingCloser{}, logger, "response_body")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "response_body", entry["resource"])

	SafeCloseWithLogging(nil, logger, "nothing")
}
