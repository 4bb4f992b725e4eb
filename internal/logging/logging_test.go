package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"awesomeml/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("whatever"))
}

func TestSetup_ConsoleFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := Setup(config.LoggerConfig{Level: "warn", Console: true}, &buf)
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awesomeml.log")
	logger, closer := Setup(config.LoggerConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1}, nil)

	logger.Info().Str("model", "MajorityClass").Msg("fitted")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "fitted", entry["message"])
	assert.Equal(t, "MajorityClass", entry["model"])
	assert.Equal(t, "info", entry["level"])
}
