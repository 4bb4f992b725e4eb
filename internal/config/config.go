package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"awesomeml/internal/models"

	"github.com/spf13/viper"
)

const EnvPrefix = "AWESOMEML"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Model      ModelConfig      `mapstructure:"model"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level is one of debug, info, warn, warning, error (case-insensitive).
	Level string `mapstructure:"level"`
	// File enables a rotating JSON log file when set.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	// Console writes human readable logs to stderr.
	Console bool `mapstructure:"console"`
}

type ModelConfig struct {
	Algorithm string `mapstructure:"algorithm"`
	// OutputWidth is the unsigned integer width predictions must fit in; 0 disables the check.
	OutputWidth int    `mapstructure:"output_width"`
	Dir         string `mapstructure:"dir"`
}

type EvaluationConfig struct {
	TestSize   float64 `mapstructure:"test_size"`
	Seed       int64   `mapstructure:"seed"`
	CVFolds    int     `mapstructure:"cv_folds"`
	Stratified bool    `mapstructure:"stratified"`
	Workers    int     `mapstructure:"workers"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.console", true)

	v.SetDefault("model.algorithm", models.AlgorithmMajority)
	v.SetDefault("model.output_width", int(models.Width8))
	v.SetDefault("model.dir", "models")

	v.SetDefault("evaluation.test_size", 0.3)
	v.SetDefault("evaluation.seed", 1)
	v.SetDefault("evaluation.cv_folds", 5)
	v.SetDefault("evaluation.stratified", true)
	v.SetDefault("evaluation.workers", 4)

	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
}

// Load reads configPath (YAML) on top of the defaults. An empty path skips the file.
// AWESOMEML_* environment variables override both, e.g. AWESOMEML_MODEL_OUTPUT_WIDTH=16.
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.Evaluation.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	if l.File != "" && l.MaxSizeMB <= 0 {
		return errors.New("logger.max_size_mb: must be positive when logger.file is set")
	}

	return nil
}

func (m *ModelConfig) Validate() error {
	if _, err := models.CreateModel[int](m.Resolve()); err != nil {
		return fmt.Errorf("model.algorithm: %w", err)
	}
	if _, err := models.ParseOutputWidth(m.OutputWidth); err != nil {
		return fmt.Errorf("model.output_width: %w", err)
	}
	return nil
}

// Resolve converts the section into the factory's configuration.
// Validate has already rejected widths ParseOutputWidth does not know.
func (m *ModelConfig) Resolve() models.ModelConfig {
	width, _ := models.ParseOutputWidth(m.OutputWidth)
	return models.ModelConfig{
		Algorithm:   m.Algorithm,
		OutputWidth: width,
	}
}

func (e *EvaluationConfig) Validate() error {
	if e.TestSize <= 0 || e.TestSize >= 1 {
		return fmt.Errorf("evaluation.test_size: must be in (0, 1), got %v", e.TestSize)
	}
	if e.CVFolds != 0 && e.CVFolds < 2 {
		return fmt.Errorf("evaluation.cv_folds: must be 0 (disabled) or at least 2, got %d", e.CVFolds)
	}
	if e.Workers < 1 {
		return fmt.Errorf("evaluation.workers: must be at least 1, got %d", e.Workers)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return errors.New("server.address: must be specified")
	}
	return nil
}
