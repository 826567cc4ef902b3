// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/cloud"
	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/gemini"
	"github.com/jeranaias/streamchat/internal/ollama"
	"github.com/jeranaias/streamchat/internal/session"
)

// SourceFactory builds the streaming source for a configuration.
type SourceFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Source, error)

// NewSource builds the source selected by cfg.Provider.Name.
//
// An unreachable Ollama server is logged, not fatal: the first request will
// fail with an apology and the user can start the server and retry.
func NewSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.ActiveModel()
	system := cfg.Provider.SystemInstruction

	switch cfg.Provider.Name {
	case config.ProviderGemini:
		src, err := gemini.New(ctx, gemini.Config{
			APIKey:            cfg.Gemini.APIKey,
			Model:             model,
			SystemInstruction: system,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w (set GEMINI_API_KEY or gemini.api_key)", err)
		}
		return src, nil

	case config.ProviderOllama:
		src, err := ollama.New(ollama.Config{
			URL:               cfg.Ollama.URL,
			Model:             model,
			SystemInstruction: system,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
		if err := src.CheckRunning(ctx); err != nil {
			logger.Warn("ollama not reachable", zap.String("url", cfg.Ollama.URL), zap.Error(err))
		}
		return src, nil

	case config.ProviderCloud:
		src, err := cloud.New(cloud.Config{
			BaseURL:           cfg.Cloud.BaseURL,
			APIKey:            cfg.Cloud.APIKey,
			Model:             model,
			SystemInstruction: system,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("cloud: %w (set OPENROUTER_API_KEY or cloud.api_key)", err)
		}
		return src, nil
	}

	return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
}
