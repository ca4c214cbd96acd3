// Package config loads the YAML run configuration of the bioqa command.
//
// Example run.yaml:
//
//	model_config: models/pointer.json
//	model_weights: models/pointer.safetensors
//	devices: ["/cpu:0"]
//	tokenizer: cl100k_base
//	batch_size: 32
//	beam_size: 5
//	list_answer_prob_threshold: 0.04
//
// Keys missing from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/bioqa/internal/bioasq"
	"github.com/born-ml/bioqa/internal/inference"
	"github.com/born-ml/bioqa/internal/tokenizer"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid run config")

// Config is the run configuration.
type Config struct {
	ModelConfig  string   `yaml:"model_config"`  // model config JSON; empty reads it from the weights
	ModelWeights string   `yaml:"model_weights"` // safetensors weights
	Devices      []string `yaml:"devices"`

	Tokenizer       string `yaml:"tokenizer"`         // tiktoken encoding, tokenizer.json or its directory
	TokenCache      string `yaml:"token_cache"`       // fastcache directory; empty keeps the cache in memory
	TokenCacheBytes int    `yaml:"token_cache_bytes"` // 0 disables the cache

	BatchSize               int     `yaml:"batch_size"`
	BeamSize                int     `yaml:"beam_size"`
	Workers                 int     `yaml:"workers"`
	ListAnswerProbThreshold float32 `yaml:"list_answer_prob_threshold"`
	FactoidAnswerCount      int     `yaml:"factoid_answer_count"`

	LogLevel string `yaml:"log_level"` // debug, info, warn or error
}

// Default returns the run defaults.
func Default() Config {
	opts := inference.DefaultOptions()
	answers := bioasq.DefaultAnswerOptions()
	return Config{
		Devices:                 []string{"/cpu:0"},
		Tokenizer:               tokenizer.EncodingCL100kBase,
		TokenCacheBytes:         32 << 20,
		BatchSize:               opts.BatchSize,
		BeamSize:                opts.BeamSize,
		Workers:                 opts.Workers,
		ListAnswerProbThreshold: answers.ListThreshold,
		FactoidAnswerCount:      answers.Count,
		LogLevel:                "info",
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML run config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read run config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the numeric settings and the log level.
func (c Config) Validate() error {
	switch {
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.BeamSize < 1:
		return fmt.Errorf("%w: beam_size must be positive, got %d", ErrInvalidConfig, c.BeamSize)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.FactoidAnswerCount < 1:
		return fmt.Errorf("%w: factoid_answer_count must be positive, got %d", ErrInvalidConfig, c.FactoidAnswerCount)
	case c.ListAnswerProbThreshold < 0 || c.ListAnswerProbThreshold > 1:
		return fmt.Errorf("%w: list_answer_prob_threshold must be in [0, 1], got %v", ErrInvalidConfig, c.ListAnswerProbThreshold)
	case c.TokenCacheBytes < 0:
		return fmt.Errorf("%w: token_cache_bytes must not be negative", ErrInvalidConfig)
	case len(c.Devices) == 0:
		return fmt.Errorf("%w: no devices", ErrInvalidConfig)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	return level, nil
}

// InferenceOptions returns the inference harness options.
func (c Config) InferenceOptions(logger *slog.Logger) inference.Options {
	return inference.Options{
		BatchSize: c.BatchSize,
		BeamSize:  c.BeamSize,
		Workers:   c.Workers,
		Logger:    logger,
	}
}

// AnswerOptions returns the answer selection options.
func (c Config) AnswerOptions() bioasq.AnswerOptions {
	return bioasq.AnswerOptions{
		ListThreshold: c.ListAnswerProbThreshold,
		Count:         c.FactoidAnswerCount,
	}
}
