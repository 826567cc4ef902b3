// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/ui/components"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.syncStatus()
		return m, cmd

	case StreamTickMsg:
		return m.handleStreamTick()

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.viewport.SetSpinner(m.spinner.View())
		return m, cmd

	case ConfigReloadedMsg:
		m.applyUI(msg.UI)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.status.SetWidth(m.width)

	// Prompt plus padding.
	m.input.Width = max(m.width-lipgloss.Width(m.input.Prompt)-2, 10)

	m.viewport.SetSize(m.width, m.viewportHeight())
	m.syncStatus()
	return m, nil
}

// viewportHeight is what remains after the fixed-height chrome.
func (m Model) viewportHeight() int {
	chrome := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.status.View())
	return max(m.height-chrome, 1)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.ctrl.Cancel() {
			m.logger.Debug("response cancelled by user")
		}
		cmd := m.ensureTicking()
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.ScrollToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.ScrollToBottom()

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.syncStatus()
	return m, nil
}

// submit hands the input line to the controller. The line is only cleared
// when the controller accepted it; a rejected submission keeps the text so
// nothing the user typed is lost.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if !m.ctrl.Submit(m.ctx, m.input.Value()) {
		return m, nil
	}
	m.input.Reset()
	tick := m.ensureTicking()
	return m, tea.Batch(tick, m.spinner.Tick)
}

// ensureTicking starts the frame loop if it is not already running.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return streamTickCmd(m.buffer.Interval())
}

// handleStreamTick moves the newest store snapshot into the viewport. The
// loop stops once the controller is idle and everything has been drawn.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	busy := m.ctrl.Busy()

	snap, ok := m.buffer.Flush()
	if !ok && !busy {
		snap, ok = m.buffer.ForceFlush()
	}
	m.viewport.SetStreaming(m.ctrl.State() == session.PhaseStreaming)
	if ok {
		m.viewport.SetMessages(snap.Messages)
	}
	m.syncStatus()

	if busy || m.buffer.Pending() {
		return m, streamTickCmd(m.buffer.Interval())
	}
	m.ticking = false
	return m, nil
}

// applyUI applies live-reloadable settings.
func (m *Model) applyUI(ui config.UIConfig) {
	m.policy.SetTolerance(ui.FollowTolerance)
	m.buffer.SetMaxFPS(ui.MaxFPS)
	m.status.ShowStats = ui.ShowStats

	if ui.CodeStyle != m.ui.CodeStyle {
		if ui.CodeStyle != "" && !components.IsKnownCodeStyle(ui.CodeStyle) {
			m.logger.Warn("unknown code style, keeping current", zap.String("style", ui.CodeStyle))
			ui.CodeStyle = m.ui.CodeStyle
		} else {
			m.theme.SetCodeStyle(ui.CodeStyle)
			m.viewport.Refresh()
		}
	}

	m.ui = ui
	m.syncStatus()
}

// syncStatus copies controller and scroll state into the status bar.
func (m *Model) syncStatus() {
	m.status.Phase = m.ctrl.State()
	m.status.Last = m.ctrl.LastOutcome()
	m.status.Stats = m.ctrl.Stats()
	m.status.Following = m.viewport.Following()
}
