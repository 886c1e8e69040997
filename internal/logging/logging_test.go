package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", slog.String("wallet_id", "w1"))

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"wallet_id":"w1"`)
}
