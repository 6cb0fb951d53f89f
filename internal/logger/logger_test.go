package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/route-tycoon/internal/config"
)

func TestSetup_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := setup(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithGame(log, "g-1").Info("route upgraded", "route_id", "r1")
	log.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "route upgraded", line["msg"])
	assert.Equal(t, "g-1", line["game_id"])
	assert.Equal(t, "r1", line["route_id"])
}

func TestSetup_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := setup(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelDebug})

	WithRequestID(log, "abc").Debug("hello")
	assert.True(t, strings.Contains(buf.String(), "request_id=abc"))
	assert.True(t, strings.Contains(buf.String(), "msg=hello"))
}
