package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(WithLevel(level), WithFormatter(&logrus.JSONFormatter{}), WithOutput(buf))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLogrusLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, InfoLevel).WithComponent("updater")

	logger.Debug("hidden")
	logger.Info("Changes planned", Namespace(""), Int("changes", 3))
	logger.WithError(errors.New("boom")).Error("Commit failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Changes planned", lines[0]["msg"])
	assert.Equal(t, "updater", lines[0]["component"])
	assert.Equal(t, "localhost", lines[0]["namespace"])
	assert.Equal(t, float64(3), lines[0]["changes"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLogrusLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, WarnLevel)
	assert.Equal(t, WarnLevel, logger.GetLevel())

	logger.Info("dropped")
	logger.SetLevel(DebugLevel)
	logger.Debugf("kept %d", 1)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept 1", lines[0]["msg"])
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithFields(context.Background(), RequestID("req-1"), Operation("apply-patch"), F("ignored", "x"))

	jsonLogger(&buf, InfoLevel).WithContext(ctx).Info("Applying patch")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "apply-patch", lines[0]["operation"])
	assert.NotContains(t, lines[0], "ignored")
}

func TestFromContext(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello")
	assert.True(t, logger.AssertLogged(InfoLevel, "hello"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestApplyConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "gcu.log")
	logger, err := ApplyConfig(&Config{Level: "debug", Format: "json", File: file})
	require.NoError(t, err)
	logger.Debug("Schema loaded", Str("dir", "/usr/local/yang-models"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Schema loaded"`)

	_, err = ApplyConfig(&Config{Format: "xml"})
	assert.EqualError(t, err, "invalid log format: xml")

	_, err = ApplyConfig(&Config{Level: "loud"})
	assert.Error(t, err)

	logger, err = ApplyConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, InfoLevel, logger.GetLevel())
}

func TestTestLogger(t *testing.T) {
	logger := NewTestLogger()
	child := logger.WithComponent("sequencer").With(Str("table", "PORT"))

	child.Debug("dropped")
	child.Info("Change ordered", Str("key", "Ethernet0"))
	assert.True(t, logger.AssertLogged(InfoLevel, "Change ordered"))
	assert.True(t, logger.AssertLoggedWithField(InfoLevel, "Change ordered", "table", "PORT"))
	assert.True(t, logger.AssertLoggedWithField(InfoLevel, "Change ordered", ComponentKey, "sequencer"))
	assert.False(t, logger.AssertLogged(DebugLevel, "dropped"))

	child.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, logger.GetLevel())

	logger.ClearEntries()
	assert.Empty(t, logger.GetEntries())
}

func TestJsonField(t *testing.T) {
	f := Json("changes", []string{"add /PORT/Ethernet0"})
	assert.Equal(t, `["add /PORT/Ethernet0"]`, f.Value)

	assert.Nil(t, Err(nil).Value)
	assert.Equal(t, "localhost", Namespace("").Value)
	assert.Equal(t, "asic0", Namespace("asic0").Value)
}
