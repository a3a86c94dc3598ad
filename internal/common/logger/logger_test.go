package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).
		With(map[string]interface{}{"taskType": "build-context"}).
		WithError(errors.New("boom"))

	log.Warn("source unavailable", map[string]interface{}{"source": "sale", "month": "2025-09"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "source unavailable", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "build-context", ctx["taskType"])
		assert.Equal(t, "sale", ctx["source"])
		assert.Equal(t, "boom", ctx["error"])
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console", "stderr"))
	NewNoOpLogger().Info("discarded", nil)
}
