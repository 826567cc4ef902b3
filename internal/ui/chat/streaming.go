// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/streamchat/internal/store"
)

// DefaultMaxFPS caps redraws while a response streams.
const DefaultMaxFPS = 30

// =============================================================================
// SNAPSHOT BUFFER
// =============================================================================

// SnapshotBuffer sits between the message store and the Bubble Tea loop.
//
// The store publishes a snapshot on every fragment, from the streaming
// goroutine. The buffer keeps only the newest one and hands it to the UI at
// most maxFPS times per second, so a fast stream costs one render per frame
// rather than one per fragment.
type SnapshotBuffer struct {
	mu      sync.Mutex
	latest  store.Snapshot
	held    bool
	fresh   bool
	limiter *rate.Limiter
	maxFPS  int
}

// NewSnapshotBuffer creates a buffer flushing at most maxFPS times per second.
func NewSnapshotBuffer(maxFPS int) *SnapshotBuffer {
	if maxFPS <= 0 {
		maxFPS = DefaultMaxFPS
	}
	return &SnapshotBuffer{
		limiter: rate.NewLimiter(rate.Limit(maxFPS), 1),
		maxFPS:  maxFPS,
	}
}

// Observe records a snapshot. It satisfies store.Observer and is safe to call
// from any goroutine. Snapshots no newer than the last one seen are ignored,
// since observers may be called out of order.
func (b *SnapshotBuffer) Observe(snap store.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.held && snap.Version <= b.latest.Version {
		return
	}
	b.latest = snap
	b.held = true
	b.fresh = true
}

// Flush returns the newest unseen snapshot if the frame budget allows.
func (b *SnapshotBuffer) Flush() (store.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.fresh || !b.limiter.Allow() {
		return store.Snapshot{}, false
	}
	b.fresh = false
	return b.latest, true
}

// ForceFlush returns the newest unseen snapshot regardless of the frame
// budget. Used once a stream has finished so the final text always lands.
func (b *SnapshotBuffer) ForceFlush() (store.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.fresh {
		return store.Snapshot{}, false
	}
	b.fresh = false
	return b.latest, true
}

// Pending reports whether a snapshot is waiting to be flushed.
func (b *SnapshotBuffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fresh
}

// SetMaxFPS updates the maximum frame rate.
func (b *SnapshotBuffer) SetMaxFPS(fps int) {
	if fps <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxFPS = fps
	b.limiter.SetLimit(rate.Limit(fps))
}

// Interval returns the tick period matching the frame rate.
func (b *SnapshotBuffer) Interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Second / time.Duration(b.maxFPS)
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next StreamTickMsg.
func streamTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
