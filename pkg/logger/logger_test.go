package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", false)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "warn 3")
}

func TestGlobalFacade(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelDebug)
	defer SetGlobal(nil)

	Info("pass %s done", "abc")
	LevelFlip("EURUSD", 1.1, true, 1.09)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var flip map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &flip))
	assert.Equal(t, "EURUSD", flip["symbol"])
	assert.Equal(t, 1.1, flip["level"])
	assert.Contains(t, flip["message"], "support → resistance")
}

func TestNilGlobalIsSilent(t *testing.T) {
	SetGlobal(nil)
	assert.NotPanics(t, func() { Warn("nobody listens") })
}
