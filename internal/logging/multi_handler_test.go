package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	info := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	errOnly := slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})

	logger := slog.New(NewMultiHandler(info, errOnly)).With("tenant_id", "breeza")
	logger.Info("store started", "collection", "workers")
	logger.Error("remote write failed", "collection", "payments")

	assert.Equal(t, 2, bytes.Count(infoBuf.Bytes(), []byte("\n")))
	require.Equal(t, 1, bytes.Count(errBuf.Bytes(), []byte("\n")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(errBuf.Bytes(), &rec))
	assert.Equal(t, "remote write failed", rec["msg"])
	assert.Equal(t, "breeza", rec["tenant_id"])
	assert.Equal(t, "payments", rec["collection"])
}

func TestMultiHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}
