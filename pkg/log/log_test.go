package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	l1 := Ctx(ctx)
	require.NotNil(t, l1, "Ctx returned nil instead of default logger")
	assert.Equal(t, defaultLogger, l1, "Ctx should return defaultLogger")

	customLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NotEqual(t, defaultLogger, customLogger)

	ctxWithLogger := With(ctx, customLogger)
	l2 := Ctx(ctxWithLogger)
	require.NotNil(t, l2)
	assert.Equal(t, customLogger, l2, "Ctx should return customLogger")
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	ctx := With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = WithRun(ctx, "run-1")

	Ctx(ctx).InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "run-1", rec["runID"])
	assert.Equal(t, "hello", rec["msg"])
}

func TestSetOutput(t *testing.T) {
	orig := defaultLogger
	defer func() { defaultLogger = orig }()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetDefaultLogLevel(slog.LevelWarn)
	defer SetDefaultLogLevel(slog.LevelInfo)

	ctx := context.Background()
	Ctx(ctx).InfoContext(ctx, "quiet")
	assert.Zero(t, buf.Len())
	Ctx(ctx).WarnContext(ctx, "loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestSyncLevel(t *testing.T) {
	defer SetDefaultLogLevel(slog.LevelInfo)

	level := SyncLevel()
	assert.Equal(t, level, defaultLogLevel.Level())
	assert.True(t, slog.Default().Enabled(context.Background(), level))
}
