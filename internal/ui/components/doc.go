// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the streamchat TUI.
//
// # Key Types
//
//   - MessageView: one chat message, rendered from its parsed segments
//   - CodeBlock: chroma-highlighted fenced code with a language badge
//   - StatusBar: provider, session phase, follow state and statistics
//
// Prose is wrapped with reflow so that ANSI styling inside inline code
// survives line breaks.
//
// # Usage
//
//	view := components.NewMessageView(msg, theme)
//	view.Width = viewport.Width
//	out := view.Render()
package components
