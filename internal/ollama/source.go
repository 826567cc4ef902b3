// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/session"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

const (
	// DefaultURL uses an explicit IPv4 address to avoid IPv6 resolution issues.
	DefaultURL = "http://127.0.0.1:11434"

	// DefaultModel is used when no model is configured.
	DefaultModel = "llama3.2"
)

// Config holds the Ollama source settings.
type Config struct {
	URL               string
	Model             string
	SystemInstruction string

	// HealthTimeout bounds CheckRunning (default: 3s).
	HealthTimeout time.Duration

	// HTTPClient is optional; streaming requests have no client timeout and
	// are bounded by the request context instead.
	HTTPClient *http.Client

	Logger *zap.Logger
}

// errStopped ends the chat callback loop when the consumer stops ranging.
var errStopped = errors.New("consumer stopped")

// =============================================================================
// SOURCE
// =============================================================================

// Source streams chat responses from a local Ollama server.
type Source struct {
	client        *api.Client
	model         string
	system        string
	healthTimeout time.Duration
	logger        *zap.Logger
}

var _ session.Source = (*Source)(nil)

// New creates a Source. Zero config fields take their defaults.
func New(cfg Config) (*Source, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = 3 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", cfg.URL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama url %q must include scheme and host", cfg.URL)
	}

	return &Source{
		client:        api.NewClient(base, cfg.HTTPClient),
		model:         cfg.Model,
		system:        cfg.SystemInstruction,
		healthTimeout: cfg.HealthTimeout,
		logger:        cfg.Logger.With(zap.String("provider", "ollama")),
	}, nil
}

// Model returns the configured model name.
func (s *Source) Model() string {
	return s.model
}

// CheckRunning verifies that the server is reachable.
func (s *Source) CheckRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.healthTimeout)
	defer cancel()
	return classify(s.client.Heartbeat(ctx))
}

// Stream implements session.Source.
func (s *Source) Stream(ctx context.Context, req session.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream := true
		chatReq := &api.ChatRequest{
			Model:    s.model,
			Messages: s.messages(req),
			Stream:   &stream,
		}

		err := s.client.Chat(ctx, chatReq, func(res api.ChatResponse) error {
			if res.Message.Content == "" {
				return nil
			}
			if !yield(res.Message.Content, nil) {
				return errStopped
			}
			return nil
		})
		if errors.Is(err, errStopped) {
			return
		}
		if err != nil {
			s.logger.Debug("chat stream ended with error", zap.Error(err))
			yield("", fmt.Errorf("ollama chat: %w", classify(err)))
		}
	}
}

// messages maps history onto Ollama chat roles, system prompt first.
func (s *Source) messages(req session.Request) []api.Message {
	msgs := make([]api.Message, 0, len(req.History)+2)
	if s.system != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: s.system})
	}
	for _, m := range req.History {
		role := "user"
		if m.Role == model.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, api.Message{Role: role, Content: m.Text})
	}
	return append(msgs, api.Message{Role: "user", Content: req.Prompt})
}
