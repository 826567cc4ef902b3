// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini streams chat responses from the Gemini API.
//
// Every request carries the same system instruction and safety settings: the
// five adjustable harm categories are all set to BLOCK_NONE so filtering is
// left to the model's built-in protections.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/session"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

var (
	// ErrMissingAPIKey indicates no API key was configured.
	ErrMissingAPIKey = errors.New("gemini API key not configured")

	// ErrBlocked indicates the prompt was rejected before generation.
	ErrBlocked = errors.New("prompt blocked")
)

// SafetyCategories are the harm categories configured on every request.
var SafetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
	genai.HarmCategoryCivicIntegrity,
}

// Config holds the Gemini source settings.
type Config struct {
	APIKey            string
	Model             string
	SystemInstruction string

	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client

	Logger *zap.Logger
}

// Source streams Gemini responses.
type Source struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	logger *zap.Logger
}

var _ session.Source = (*Source)(nil)

// New creates a Source.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Source{
		client: client,
		model:  cfg.Model,
		config: GenerateConfig(cfg.SystemInstruction),
		logger: cfg.Logger.With(zap.String("provider", "gemini"), zap.String("model", cfg.Model)),
	}, nil
}

// GenerateConfig builds the fixed per-request configuration.
func GenerateConfig(systemInstruction string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: make([]*genai.SafetySetting, 0, len(SafetyCategories)),
	}
	for _, c := range SafetyCategories {
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	if systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	return cfg
}

// Model returns the configured model name.
func (s *Source) Model() string {
	return s.model
}

// Stream implements session.Source.
func (s *Source) Stream(ctx context.Context, req session.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range s.client.Models.GenerateContentStream(ctx, s.model, Contents(req), s.config) {
			if err != nil {
				s.logger.Debug("stream failed", zap.Error(err))
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
				yield("", fmt.Errorf("%w: %s", ErrBlocked, fb.BlockReason))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// Contents maps the history and prompt onto Gemini turns.
func Contents(req session.Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}
