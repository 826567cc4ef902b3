// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/ui/styles"
	"github.com/jeranaias/streamchat/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: provider and model on the left, session
// phase, follow state and response statistics on the right.
type StatusBar struct {
	Provider  string
	ModelName string
	Width     int

	// Phase is the controller's current phase; Last is the outcome of the
	// most recent cycle.
	Phase session.Phase
	Last  session.Phase

	Following bool
	ShowStats bool
	Stats     model.Statistics

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width:     80,
		Phase:     session.PhaseIdle,
		Last:      session.PhaseIdle,
		Following: true,
		ShowStats: true,
		theme:     theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar padded to the full width.
func (s *StatusBar) View() string {
	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	left := s.Provider
	if s.ModelName != "" {
		left += " " + s.ModelName
	}

	var right []string
	if status := s.renderPhase(); status != "" {
		right = append(right, status)
	}
	if s.Following {
		right = append(right, s.theme.StatusFollowing.Render("following"))
	} else {
		right = append(right, s.theme.StatusPinned.Render("pinned (End to follow)"))
	}
	if s.ShowStats && s.Phase == session.PhaseIdle && s.Stats.TotalDuration > 0 {
		right = append(right, s.theme.StatusStats.Render(s.Stats.Format()))
	}
	rightText := strings.Join(right, separator)

	// Padding takes two columns.
	inner := max(s.Width-2, 1)
	rightWidth := lipgloss.Width(rightText)
	leftWidth := max(inner-rightWidth-1, 0)
	line := util.PadRight(left, leftWidth) + " " + rightText
	if rightWidth+1 > inner {
		line = util.TruncateWidth(left, inner)
	}

	return s.theme.StatusBar.Width(s.Width).Render(line)
}

// renderPhase shows the live phase while busy, otherwise how the last
// cycle ended when it did not complete normally.
func (s *StatusBar) renderPhase() string {
	switch s.Phase {
	case session.PhaseSubmitting:
		return s.theme.StatusBusy.Render("sending...")
	case session.PhaseStreaming:
		return s.theme.StatusBusy.Render("streaming... (Esc to stop)")
	}
	switch s.Last {
	case session.PhaseFailed:
		return styles.RenderError("failed")
	case session.PhaseAborted:
		return styles.RenderWarning("cancelled")
	}
	return ""
}
