package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, true, slog.LevelInfo)
	logger.Info("hello", "key", "value")

	out := buf.String()
	require.True(t, strings.Contains(out, `"msg":"hello"`))
	require.True(t, strings.Contains(out, `"key":"value"`))
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, true, slog.LevelWarn)
	logger.Info("should be dropped")
	require.Empty(t, buf.String())

	logger.Warn("should appear")
	require.True(t, strings.Contains(buf.String(), "should appear"))
}

func TestAppendCtxAttachesAttrsToSubsequentLogCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("run_id", "abc123"))
	logger.InfoContext(ctx, "started")

	require.True(t, strings.Contains(buf.String(), `"run_id":"abc123"`))
}

func TestAppendCtxAccumulatesAcrossMultipleCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("a", "1"))
	ctx = AppendCtx(ctx, slog.String("b", "2"))
	logger.InfoContext(ctx, "both present")

	out := buf.String()
	require.True(t, strings.Contains(out, `"a":"1"`))
	require.True(t, strings.Contains(out, `"b":"2"`))
}
