// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/session"
)

// Configuration constants for the default endpoint.
const (
	// DefaultBaseURL is the OpenRouter API base URL.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "openrouter/auto"
)

// Models maps friendly names to full model identifiers.
var Models = map[string]string{
	"auto":   "openrouter/auto",
	"haiku":  "anthropic/claude-3.5-haiku",
	"sonnet": "anthropic/claude-3.5-sonnet",
	"opus":   "anthropic/claude-3-opus",
	"gpt4o":  "openai/gpt-4o",
	"gpt4":   "openai/gpt-4-turbo",
}

// ResolveModel expands a friendly name. Unknown names pass through unchanged.
func ResolveModel(name string) string {
	if full, ok := Models[name]; ok {
		return full
	}
	return name
}

// streamingClient has no timeout; streams are bounded by their context.
var streamingClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	},
}

// Config holds the cloud source settings.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	SystemInstruction string

	// HTTPClient overrides the shared streaming client (tests).
	HTTPClient *http.Client

	Logger *zap.Logger
}

// Source streams chat completions.
type Source struct {
	client *openai.Client
	model  string
	system string
	logger *zap.Logger
}

var _ session.Source = (*Source)(nil)

// New creates a Source. It fails with ErrNotConfigured when no API key is set.
func New(cfg Config) (*Source, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = streamingClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = cfg.HTTPClient

	return &Source{
		client: openai.NewClientWithConfig(oc),
		model:  ResolveModel(cfg.Model),
		system: cfg.SystemInstruction,
		logger: cfg.Logger.With(zap.String("provider", "cloud"), zap.String("base_url", cfg.BaseURL)),
	}, nil
}

// Model returns the resolved model identifier.
func (s *Source) Model() string {
	return s.model
}

// Stream implements session.Source.
func (s *Source) Stream(ctx context.Context, req session.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    s.model,
			Messages: s.messages(req),
			Stream:   true,
		})
		if err != nil {
			yield("", fmt.Errorf("open stream: %w", classify(err)))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				s.logger.Debug("stream receive failed", zap.Error(err))
				yield("", fmt.Errorf("receive: %w", classify(err)))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if content := resp.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}

func (s *Source) messages(req session.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if s.system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: s.system,
		})
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
}
