// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/streamchat/internal/store"
)

// streamPrinter writes a reply to a line-oriented writer as it grows.
//
// It attaches to the first pending message it sees. Appended text is
// written as a delta; text that no longer extends what was printed (an
// apology replacing a partial reply) is written in full on a new line.
type streamPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	id      string
	version uint64
	printed string
}

func newStreamPrinter(w io.Writer) *streamPrinter {
	return &streamPrinter{w: w}
}

// Observe satisfies store.Observer.
func (p *streamPrinter) Observe(snap store.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Version <= p.version {
		return
	}
	p.version = snap.Version

	if p.id == "" {
		msg, ok := snap.Pending()
		if !ok {
			return
		}
		p.id = msg.ID
	}

	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].ID == p.id {
			p.write(snap.Messages[i].Text)
			return
		}
	}
}

func (p *streamPrinter) write(text string) {
	switch {
	case text == p.printed:
		return
	case strings.HasPrefix(text, p.printed):
		_, _ = io.WriteString(p.w, text[len(p.printed):])
	default:
		if p.printed != "" {
			_, _ = io.WriteString(p.w, "\n")
		}
		_, _ = io.WriteString(p.w, text)
	}
	p.printed = text
}

// Text returns everything printed so far.
func (p *streamPrinter) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed
}
