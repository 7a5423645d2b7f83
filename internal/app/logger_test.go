package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerHonorsLevel(t *testing.T) {
	logger := NewLogger(&Config{LogLevel: "warn"})
	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger = NewLogger(&Config{LogLevel: "debug"})
	require.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewLoggerPicksHandlerByEnvironment(t *testing.T) {
	logger := NewLogger(&Config{AppEnv: "production", LogFormat: "pretty"})
	_, ok := logger.Handler().(*slog.JSONHandler)
	require.True(t, ok)

	logger = NewLogger(&Config{LogFormat: "pretty"})
	_, ok = logger.Handler().(*slog.TextHandler)
	require.True(t, ok)
}
