package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_RespectsConfiguredLevel(t *testing.T) {
	log := New("warn", "text")
	require.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, log.Enabled(context.Background(), slog.LevelWarn))
}

func TestFilteringHandler_SuppressesThirdPartyBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	h := &filteringHandler{handler: base, minLevel: slog.LevelInfo}

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "third party noise", 0)
	require.NoError(t, h.Handle(context.Background(), rec))
	require.Empty(t, buf.String(), "a record with no program counter looks third-party and should be suppressed above debug")
}

func TestFilteringHandler_DebugLevelLetsEverythingThrough(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := &filteringHandler{handler: base, minLevel: slog.LevelDebug}

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "anything", 0)
	require.NoError(t, h.Handle(context.Background(), rec))
	require.True(t, strings.Contains(buf.String(), "anything"))
}
