// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/scroll"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/ui/components"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

// Options configures a chat Model.
type Options struct {
	// Context bounds every submitted cycle. Defaults to Background.
	Context    context.Context
	Controller *session.Controller
	Policy     *scroll.Policy
	Theme      *styles.Theme

	Provider  string
	ModelName string
	UI        config.UIConfig

	Logger *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx    context.Context
	ctrl   *session.Controller
	policy *scroll.Policy
	theme  *styles.Theme
	logger *zap.Logger
	keys   KeyMap

	// Components
	viewport *components.ChatViewport
	input    textinput.Model
	spinner  spinner.Model
	status   *components.StatusBar

	// Store snapshots waiting for the next frame
	buffer      *SnapshotBuffer
	unsubscribe func()

	ui       config.UIConfig
	provider string
	model    string

	// Dimensions
	width  int
	height int

	// ticking is true while a StreamTickMsg is scheduled
	ticking bool
}

// New creates the chat model and subscribes it to the controller's store.
// Call Close when the program exits.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Policy == nil {
		opts.Policy = scroll.New(opts.UI.FollowTolerance)
	}
	opts.Theme.SetCodeStyle(opts.UI.CodeStyle)

	input := textinput.New()
	input.Placeholder = "Ask anything..."
	input.Prompt = opts.Theme.InputPrompt.Render("> ")
	input.CharLimit = 0
	// Home/End scroll the conversation; line editing keeps the emacs keys.
	input.KeyMap.LineStart = key.NewBinding(key.WithKeys("ctrl+a"))
	input.KeyMap.LineEnd = key.NewBinding(key.WithKeys("ctrl+e"))
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.Spinner

	status := components.NewStatusBar(opts.Theme)
	status.Provider = opts.Provider
	status.ModelName = opts.ModelName
	status.ShowStats = opts.UI.ShowStats

	m := Model{
		ctx:      opts.Context,
		ctrl:     opts.Controller,
		policy:   opts.Policy,
		theme:    opts.Theme,
		logger:   opts.Logger,
		keys:     DefaultKeyMap(),
		viewport: components.NewChatViewport(opts.Theme, opts.Policy),
		input:    input,
		spinner:  sp,
		status:   status,
		buffer:   NewSnapshotBuffer(opts.UI.MaxFPS),
		ui:       opts.UI,
		provider: opts.Provider,
		model:    opts.ModelName,
	}

	st := opts.Controller.Store()
	m.unsubscribe = st.Subscribe(m.buffer.Observe)
	m.viewport.SetMessages(st.Snapshot().Messages)
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close detaches from the store and cancels any running response.
func (m Model) Close() {
	m.ctrl.Cancel()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Input returns the current input line.
func (m Model) Input() string {
	return m.input.Value()
}

// Following reports whether the view tracks new content.
func (m Model) Following() bool {
	return m.viewport.Following()
}
