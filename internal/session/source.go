// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"iter"

	"github.com/jeranaias/streamchat/internal/model"
)

// Request is one prompt sent to a Source.
type Request struct {
	// Prompt is the normalized user input for this cycle.
	Prompt string

	// History holds the finalized exchanges before Prompt, oldest first.
	// Failed and cancelled exchanges are left out.
	History []model.Message
}

// Source produces a streamed response.
//
// Stream returns a lazy sequence of text fragments in arrival order. An error
// ends the sequence: it is yielded once, as the last element. Implementations
// must stop promptly when ctx is cancelled or when the consumer stops
// ranging.
type Source interface {
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, req Request) iter.Seq2[string, error]

// Stream calls f(ctx, req).
func (f SourceFunc) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return f(ctx, req)
}

// Fragments returns a sequence yielding each fragment in order, followed by
// err when it is non-nil. Adapters and tests use it for canned responses.
func Fragments(err error, fragments ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}
