// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/scroll"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

// =============================================================================
// CHAT VIEWPORT COMPONENT - Scrollable chat area with follow tracking
// =============================================================================

// ChatViewport is the scrollable message area. Every user scroll is reported
// to the follow policy; new content only moves the view to the bottom while
// the policy says the user is following.
type ChatViewport struct {
	viewport viewport.Model
	policy   *scroll.Policy
	theme    *styles.Theme

	messages      []model.Message
	spinner       string
	showTimestamp bool

	// streaming labels the last assistant message as still receiving text.
	streaming bool

	// Rendered output per message ID. A streaming reply changes every
	// frame; finished messages are rendered once per width/style.
	cache map[string]renderedMessage
}

type renderedMessage struct {
	text      string
	pending   bool
	streaming bool
	width     int
	style   string
	spinner string
	out     string
}

// NewChatViewport creates a new ChatViewport.
func NewChatViewport(theme *styles.Theme, policy *scroll.Policy) *ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()
	vp.MouseWheelEnabled = true
	// Keys are routed explicitly by the owner so typing never scrolls.
	vp.KeyMap = viewport.KeyMap{}

	return &ChatViewport{
		viewport:      vp,
		policy:        policy,
		theme:         theme,
		showTimestamp: true,
		cache:         make(map[string]renderedMessage),
	}
}

// SetSize updates the viewport dimensions and re-renders.
func (cv *ChatViewport) SetSize(width, height int) {
	cv.viewport.Width = max(width, 1)
	cv.viewport.Height = max(height, 1)
	cv.updateContent()
}

// SetMessages replaces the displayed messages with a store snapshot.
func (cv *ChatViewport) SetMessages(messages []model.Message) {
	cv.messages = messages
	cv.updateContent()
}

// SetSpinner updates the spinner frame shown in an empty pending reply.
func (cv *ChatViewport) SetSpinner(frame string) {
	if frame == cv.spinner {
		return
	}
	cv.spinner = frame
	for _, m := range cv.messages {
		if m.Pending && m.Text == "" {
			cv.updateContent()
			return
		}
	}
}

// SetStreaming marks whether the last assistant message is still streaming.
func (cv *ChatViewport) SetStreaming(on bool) {
	if on == cv.streaming {
		return
	}
	cv.streaming = on
	cv.updateContent()
}

// Streaming reports whether the last assistant message is marked streaming.
func (cv *ChatViewport) Streaming() bool {
	return cv.streaming
}

// Refresh re-renders everything, e.g. after a theme change.
func (cv *ChatViewport) Refresh() {
	clear(cv.cache)
	cv.updateContent()
}

// updateContent re-renders the message content and applies the follow policy.
func (cv *ChatViewport) updateContent() {
	cv.viewport.SetContent(cv.render())
	if cv.policy.ShouldFollow() {
		cv.viewport.GotoBottom()
	}
}

func (cv *ChatViewport) render() string {
	width := cv.viewport.Width
	if len(cv.messages) == 0 {
		clear(cv.cache)
		return cv.theme.EmptyState.Width(width).Render("No messages yet. Ask something!")
	}

	streamingID := ""
	if cv.streaming {
		for i := len(cv.messages) - 1; i >= 0; i-- {
			if cv.messages[i].Role == model.RoleAssistant {
				streamingID = cv.messages[i].ID
				break
			}
		}
	}

	live := make(map[string]bool, len(cv.messages))
	parts := make([]string, 0, len(cv.messages))
	for _, m := range cv.messages {
		live[m.ID] = true
		parts = append(parts, cv.renderMessage(m, width, m.ID == streamingID))
	}
	for id := range cv.cache {
		if !live[id] {
			delete(cv.cache, id)
		}
	}

	// Blank line between messages.
	return strings.Join(parts, "\n\n")
}

func (cv *ChatViewport) renderMessage(m model.Message, width int, streaming bool) string {
	spinner := ""
	if m.Pending && m.Text == "" {
		spinner = cv.spinner
	}

	if c, ok := cv.cache[m.ID]; ok &&
		c.text == m.Text && c.pending == m.Pending && c.streaming == streaming && c.width == width &&
		c.style == cv.theme.CodeStyle && c.spinner == spinner {
		return c.out
	}

	view := NewMessageView(m, cv.theme)
	view.Width = width
	view.Spinner = spinner
	view.ShowTimestamp = cv.showTimestamp
	view.Streaming = streaming
	out := view.Render()

	cv.cache[m.ID] = renderedMessage{
		text:      m.Text,
		pending:   m.Pending,
		streaming: streaming,
		width:     width,
		style:     cv.theme.CodeStyle,
		spinner:   spinner,
		out:       out,
	}
	return out
}

// =============================================================================
// SCROLLING
// =============================================================================

// observe reports the current geometry to the follow policy.
func (cv *ChatViewport) observe() scroll.State {
	return cv.policy.Observe(cv.Metrics())
}

// Metrics returns the viewport geometry in lines.
func (cv *ChatViewport) Metrics() scroll.Metrics {
	return scroll.Metrics{
		Offset:         cv.viewport.YOffset,
		ViewportHeight: cv.viewport.Height,
		ContentHeight:  cv.viewport.TotalLineCount(),
	}
}

// observeUp reports a scroll that started at offset before. Moving up at
// all pins the view, even when it stays within the follow tolerance;
// otherwise the next frame would snap straight back to the bottom.
func (cv *ChatViewport) observeUp(before int) {
	m := cv.Metrics()
	if m.Offset < before && m.DistanceFromBottom() > 0 {
		cv.policy.Pin()
		return
	}
	cv.policy.Observe(m)
}

// ScrollUp scrolls up by the specified number of lines.
func (cv *ChatViewport) ScrollUp(lines int) {
	before := cv.viewport.YOffset
	cv.viewport.LineUp(lines)
	cv.observeUp(before)
}

// ScrollDown scrolls down by the specified number of lines.
func (cv *ChatViewport) ScrollDown(lines int) {
	cv.viewport.LineDown(lines)
	cv.observe()
}

// PageUp scrolls up by one page.
func (cv *ChatViewport) PageUp() {
	before := cv.viewport.YOffset
	cv.viewport.ViewUp()
	cv.observeUp(before)
}

// PageDown scrolls down by one page.
func (cv *ChatViewport) PageDown() {
	cv.viewport.ViewDown()
	cv.observe()
}

// ScrollToTop scrolls to the top of the viewport.
func (cv *ChatViewport) ScrollToTop() {
	cv.viewport.GotoTop()
	cv.observe()
}

// ScrollToBottom scrolls to the bottom and resumes following.
func (cv *ChatViewport) ScrollToBottom() {
	cv.viewport.GotoBottom()
	cv.observe()
}

// Following reports whether new content will keep the view at the bottom.
func (cv *ChatViewport) Following() bool {
	return cv.policy.ShouldFollow()
}

// AtBottom returns true if the viewport is at the bottom.
func (cv *ChatViewport) AtBottom() bool {
	return cv.viewport.AtBottom()
}

// Update handles mouse wheel scrolling.
func (cv *ChatViewport) Update(msg tea.Msg) (*ChatViewport, tea.Cmd) {
	if _, ok := msg.(tea.MouseMsg); !ok {
		return cv, nil
	}
	before := cv.viewport.YOffset
	var cmd tea.Cmd
	cv.viewport, cmd = cv.viewport.Update(msg)
	cv.observeUp(before)
	return cv, cmd
}

// View renders the viewport.
func (cv *ChatViewport) View() string {
	return cv.viewport.View()
}
