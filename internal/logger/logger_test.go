package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromZap_WritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With(String("service", "project"))

	log.Warn("stats fetch failed", Uint64("project_id", 7), Err(errors.New("timeout")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stats fetch failed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "project", ctx["service"])
	assert.Equal(t, uint64(7), ctx["project_id"])
	assert.Equal(t, "timeout", ctx["error"])
}

func TestErr_NilIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	FromZap(zap.New(core)).Info("ok", Err(nil))

	require.Len(t, logs.All(), 1)
	assert.Empty(t, logs.All()[0].ContextMap())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
}

func TestNop_DoesNotPanic(t *testing.T) {
	log := Nop()
	log.Debug("x")
	log.With(Int("n", 1)).Error("y")
	assert.NoError(t, log.Sync())
}
