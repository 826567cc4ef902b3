// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/streamchat/internal/util"
)

// View renders the chat: header, messages, input line and status bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.status.View()

	// The viewport is sized in handleResize; force the height here as well
	// so a mismatch can never push the input off screen.
	available := max(m.height-lipgloss.Height(header)-lipgloss.Height(input)-lipgloss.Height(status), 1)
	messages := m.viewport.View()
	if lipgloss.Height(messages) != available {
		messages = lipgloss.NewStyle().
			Height(available).
			MaxHeight(available).
			Width(m.width).
			Render(messages)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, messages, input, status)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("streamchat")
	subtitle := ""
	if m.provider != "" {
		subtitle = m.theme.HeaderSubtitle.Render(m.provider + " / " + m.model)
	}
	line := title
	if subtitle != "" {
		line += "  " + subtitle
	}
	return m.theme.Header.Width(max(m.width, 1)).Render(util.TruncateWidth(line, max(m.width-2, 1)))
}

func (m Model) renderInput() string {
	hints := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	hint := m.theme.StatusStats.Render(util.TruncateWidth(strings.Join(hints, " | "), max(m.width-2, 1)))

	return m.theme.InputContainer.Width(max(m.width, 1)).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.input.View(), hint),
	)
}
