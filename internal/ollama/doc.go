// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama streams chat responses from a local Ollama server.
//
// # Key Types
//
//   - Source: session.Source backed by the Ollama chat API
//   - ClientError: categorized transport and API failures
//
// # Usage
//
//	src, err := ollama.New(ollama.Config{Model: "llama3.2"})
//	if err != nil {
//	    return err
//	}
//	if err := src.CheckRunning(ctx); errors.Is(err, ollama.ErrNotRunning) {
//	    // start the server with `ollama serve`
//	}
//	for fragment, err := range src.Stream(ctx, session.Request{Prompt: "Hi"}) {
//	    ...
//	}
package ollama
