package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"awesomeml/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, models.AlgorithmMajority, cfg.Model.Algorithm)
	assert.Equal(t, 8, cfg.Model.OutputWidth)
	assert.Equal(t, 0.3, cfg.Evaluation.TestSize)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, models.Width8, cfg.Model.Resolve().OutputWidth)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
model:
  output_width: 16
  dir: /tmp/models
evaluation:
  cv_folds: 10
server:
  address: ":9090"
  read_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 16, cfg.Model.OutputWidth)
	assert.Equal(t, "/tmp/models", cfg.Model.Dir)
	assert.Equal(t, 10, cfg.Evaluation.CVFolds)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, models.AlgorithmMajority, cfg.Model.Algorithm)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AWESOMEML_MODEL_OUTPUT_WIDTH", "32")
	t.Setenv("AWESOMEML_LOGGER_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Model.OutputWidth)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"level":     "logger:\n  level: loud\n",
		"width":     "model:\n  output_width: 12\n",
		"algorithm": "model:\n  algorithm: knn\n",
		"test size": "evaluation:\n  test_size: 1.5\n",
		"folds":     "evaluation:\n  cv_folds: 1\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}
