// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud streams chat responses from OpenAI-compatible endpoints.
//
// OpenRouter is the default endpoint: it serves Claude, GPT-4o, Gemini and
// other models behind one API. Any server that speaks the chat completions
// streaming protocol works by changing the base URL.
//
// # Key Types
//
//   - Source: session.Source backed by a chat completions stream
//   - APIError: categorized HTTP failure from the endpoint
//
// # Usage
//
//	src, err := cloud.New(cloud.Config{APIKey: key, Model: "sonnet"})
//	if err != nil {
//	    return err
//	}
//	for fragment, err := range src.Stream(ctx, session.Request{Prompt: "Hello"}) {
//	    ...
//	}
//
// # Security
//
// API keys are never logged. Requests use TLS 1.2 or newer.
package cloud
