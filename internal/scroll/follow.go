// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll decides whether new chat content should pull the viewport
// to the bottom.
//
// The policy starts in Following. A scroll that leaves the viewport bottom
// more than the tolerance above the content bottom pins the view where the
// user put it; scrolling back near the bottom, or submitting a new prompt,
// resumes following.
package scroll

import "sync"

// DefaultTolerance is the follow tolerance in viewport units.
const DefaultTolerance = 50

// State is the follow state.
type State int

const (
	Following State = iota
	Pinned
)

// String returns the state name.
func (s State) String() string {
	if s == Pinned {
		return "pinned"
	}
	return "following"
}

// Metrics describes viewport geometry at the moment of a scroll event.
// All values share one unit (lines in the TUI).
type Metrics struct {
	// Offset is the distance from content top to viewport top.
	Offset int
	// ViewportHeight is the visible height.
	ViewportHeight int
	// ContentHeight is the total content height.
	ContentHeight int
}

// DistanceFromBottom returns how far the viewport bottom sits above the
// content bottom. Content shorter than the viewport is always at the bottom.
func (m Metrics) DistanceFromBottom() int {
	d := m.ContentHeight - (m.Offset + m.ViewportHeight)
	if d < 0 {
		return 0
	}
	return d
}

// Policy is the follow/pinned state machine. It is safe for concurrent use.
type Policy struct {
	mu        sync.Mutex
	tolerance int
	state     State
}

// New creates a Policy in the Following state. A negative tolerance is
// treated as zero.
func New(tolerance int) *Policy {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Policy{tolerance: tolerance}
}

// Observe applies a user scroll event and returns the resulting state.
func (p *Policy) Observe(m Metrics) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m.DistanceFromBottom() > p.tolerance {
		p.state = Pinned
	} else {
		p.state = Following
	}
	return p.state
}

// Pin stops following regardless of distance. Used for an explicit upward
// scroll, which can end inside the tolerance band.
func (p *Policy) Pin() {
	p.mu.Lock()
	p.state = Pinned
	p.mu.Unlock()
}

// Reset resumes following. Called when the user submits a prompt.
func (p *Policy) Reset() {
	p.mu.Lock()
	p.state = Following
	p.mu.Unlock()
}

// ShouldFollow reports whether new content should scroll to the bottom.
func (p *Policy) ShouldFollow() bool {
	return p.State() == Following
}

// State returns the current state.
func (p *Policy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tolerance returns the configured tolerance.
func (p *Policy) Tolerance() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tolerance
}

// SetTolerance changes the tolerance for future events.
func (p *Policy) SetTolerance(tolerance int) {
	if tolerance < 0 {
		tolerance = 0
	}
	p.mu.Lock()
	p.tolerance = tolerance
	p.mu.Unlock()
}
