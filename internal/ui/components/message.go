// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/segment"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

// =============================================================================
// MESSAGE VIEW COMPONENT
// =============================================================================

// MessageView renders one chat message. The text is re-parsed into segments
// on every render, so a partially streamed code block shows up as code as
// soon as its opening fence arrives.
type MessageView struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool

	// Spinner is the current spinner frame, shown while a pending reply
	// has no text yet.
	Spinner string

	// Streaming marks the reply that is still receiving fragments. The
	// pending flag clears on the first fragment, so it cannot tell.
	Streaming bool

	theme *styles.Theme
}

// NewMessageView creates a MessageView.
func NewMessageView(msg model.Message, theme *styles.Theme) MessageView {
	return MessageView{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
	}
}

// Render renders the header line and the message body.
func (v MessageView) Render() string {
	bubble := v.theme.AssistantBubble
	if v.Message.Role == model.RoleUser {
		bubble = v.theme.UserBubble
	}

	// Border and padding take two columns.
	inner := max(v.Width-2, 10)
	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		bubble.Width(inner).Render(v.renderBody(inner)),
	)
}

func (v MessageView) renderHeader() string {
	label := v.theme.AssistantLabel
	if v.Message.Role == model.RoleUser {
		label = v.theme.UserLabel
	}

	parts := []string{label.Render(strings.ToLower(v.Message.Role.DisplayName()))}
	if v.ShowTimestamp && !v.Message.Timestamp.IsZero() {
		parts = append(parts, v.theme.Timestamp.Render(v.Message.Timestamp.Format("15:04")))
	}
	if v.Streaming && v.Message.Role == model.RoleAssistant {
		parts = append(parts, v.theme.ThinkingText.Render("streaming"))
	}
	return strings.Join(parts, " ")
}

func (v MessageView) renderBody(width int) string {
	if v.Message.Pending && v.Message.Text == "" {
		return v.theme.Spinner.Render(v.Spinner) + " " + v.theme.ThinkingText.Render("thinking...")
	}
	if strings.TrimSpace(v.Message.Text) == "" {
		return v.theme.Timestamp.Render("(empty response)")
	}
	return RenderSegments(segment.Parse(v.Message.Text), width, v.theme)
}

// RenderSegments lays out parsed segments vertically. Prose and inline code
// that sit on the same line are wrapped together; block code is rendered
// through CodeBlock.
func RenderSegments(segs []segment.Segment, width int, theme *styles.Theme) string {
	var blocks []string
	var line strings.Builder

	flush := func() {
		text := trimProse(line.String())
		line.Reset()
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, WrapProse(text, width))
		}
	}

	for _, seg := range segs {
		switch {
		case seg.Kind == segment.KindProse:
			line.WriteString(seg.Content)
		case seg.Inline:
			line.WriteString(RenderInlineCode(seg.Content, theme))
		default:
			flush()
			cb := NewCodeBlock(seg, theme)
			cb.SetMaxWidth(width)
			blocks = append(blocks, cb.Render())
		}
	}
	flush()

	return strings.Join(blocks, "\n")
}
