// internal/logging/logging_test.go
package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"":         zerolog.InfoLevel,
		"INFO":     zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"warn":     zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"critical": zerolog.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_ConsoleAndFileLevels(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "main.log")

	var console bytes.Buffer
	logger, closeLog, err := New(Config{Level: "debug", File: file, MaxSizeMB: 1, MaxBackups: 4}, &console)
	require.NoError(t, err)

	l := Component(logger, "test")
	l.Debug().Msg("debug-line")
	l.Info().Msg("info-line")
	require.NoError(t, closeLog())

	assert.False(t, strings.Contains(console.String(), "debug-line"), "console should drop debug")
	assert.True(t, strings.Contains(console.String(), "info-line"))

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "debug-line")
	assert.Contains(t, string(b), "info-line")
	assert.Contains(t, string(b), `"component":"test"`)
}

func TestNew_LevelFiltersFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.log")

	var console bytes.Buffer
	logger, closeLog, err := New(Config{Level: "warn", File: file}, &console)
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	require.NoError(t, closeLog())

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "quiet")
	assert.Contains(t, string(b), "loud")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
