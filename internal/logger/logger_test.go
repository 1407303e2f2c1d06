package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		l, err := NewLogger(env, "", "knowsphere")
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_Level(t *testing.T) {
	l, err := NewLogger("prod", "warn", "knowsphere")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_Errors(t *testing.T) {
	_, err := NewLogger("staging", "", "knowsphere")
	assert.ErrorContains(t, err, "unknown environment")

	_, err = NewLogger("prod", "loud", "knowsphere")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestFromContext(t *testing.T) {
	fallback := zap.NewNop()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	core, logs := observer.New(zapcore.InfoLevel)
	stored := zap.New(core)
	ctx := ContextWithLogger(context.Background(), stored)
	FromContext(ctx, fallback).Info("hello")
	assert.Equal(t, 1, logs.Len())
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = With(ctx, zap.NewNop(), zap.String("insight_id", "i-1"))
	FromContext(ctx, zap.NewNop()).Info("voted")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "i-1", logs.All()[0].ContextMap()["insight_id"])
}
