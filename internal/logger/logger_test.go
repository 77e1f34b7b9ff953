package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "debug", Out: &buf}))
	t.Cleanup(func() { SetLevel("info") })

	l := WithComponent("poller")
	l.Debug().Str("task_id", "t-1").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "poller", entry["component"])
	assert.Equal(t, "t-1", entry["task_id"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInit_Console(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Format: "console", Out: &buf}))

	Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Format: "json", File: path, Out: &buf}))

	Warn().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range tests {
		SetLevel(in)
		assert.Equal(t, want, zerolog.GlobalLevel(), in)
	}
}
