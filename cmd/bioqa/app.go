package main

import (
	"fmt"
	"log/slog"

	"go.uber.org/dig"

	"github.com/born-ml/bioqa/internal/backend/cpu"
	"github.com/born-ml/bioqa/internal/config"
	"github.com/born-ml/bioqa/internal/inference"
	"github.com/born-ml/bioqa/internal/pointer"
	"github.com/born-ml/bioqa/internal/tokenizer"
)

type (
	backend  = *cpu.CPUBackend
	model    = pointer.Model[backend]
	inferrer = inference.Inferrer[backend]
)

// tokens is the run tokenizer with its optional encoding cache.
type tokens struct {
	tokenizer.Tokenizer
	cache *tokenizer.Cache
}

// app holds the components a run command works with.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	inferrer *inferrer
	tokens   tokens
}

// newContainer wires the run components.
func newContainer(cfg config.Config) (*dig.Container, error) {
	c := dig.New()
	providers := []any{
		func() config.Config { return cfg },
		newRunLogger,
		cpu.New,
		newModel,
		newTokens,
		newInferrer,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, fmt.Errorf("provide: %w", err)
		}
	}
	return c, nil
}

func newRunLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return newLogger(level), nil
}

func newModel(cfg config.Config, b backend, logger *slog.Logger) (*model, error) {
	m, err := pointer.Load(cfg.ModelConfig, cfg.ModelWeights, cfg.Devices, b)
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded", "weights", cfg.ModelWeights,
		"answer_layer", m.AnswerLayerType().String(), "devices", cfg.Devices)
	return m, nil
}

func newTokens(cfg config.Config, logger *slog.Logger) (tokens, error) {
	tok, err := tokenizer.Load(cfg.Tokenizer)
	if err != nil {
		return tokens{}, err
	}
	if cfg.TokenCacheBytes == 0 {
		return tokens{Tokenizer: tok}, nil
	}

	var cache *tokenizer.Cache
	if cfg.TokenCache != "" {
		cache = tokenizer.LoadCache(tok, cfg.TokenCache, cfg.TokenCacheBytes)
	} else {
		cache = tokenizer.NewCache(tok, cfg.TokenCacheBytes)
	}
	logger.Debug("token cache enabled", "path", cfg.TokenCache, "bytes", cfg.TokenCacheBytes)
	return tokens{Tokenizer: cache, cache: cache}, nil
}

func newInferrer(cfg config.Config, m *model, tok tokens, logger *slog.Logger) (*inferrer, error) {
	return inference.New(m, tok.Tokenizer, cfg.InferenceOptions(logger))
}

// withApp builds the run components, calls fn and releases them.
func withApp(cfg config.Config, fn func(*app) error) error {
	c, err := newContainer(cfg)
	if err != nil {
		return err
	}

	return c.Invoke(func(inf *inferrer, tok tokens, logger *slog.Logger) error {
		defer inf.Close()

		a := &app{cfg: cfg, logger: logger, inferrer: inf, tokens: tok}
		if err := fn(a); err != nil {
			return err
		}
		return a.saveTokenCache()
	})
}

func (a *app) saveTokenCache() error {
	cache := a.tokens.cache
	if cache == nil {
		return nil
	}

	stats := cache.Stats()
	a.logger.Debug("token cache", "lookups", stats.GetBigCalls, "entries", stats.EntriesCount)
	if a.cfg.TokenCache == "" {
		return nil
	}
	return cache.SaveToFile(a.cfg.TokenCache)
}
