// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the streamchat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The Theme carries the detected termenv color profile so that code
highlighting can pick a chroma formatter the terminal actually supports.

# Color System (colors.go)

  - Purple - assistant messages, spinner
  - Cyan - user messages, prompt
  - Emerald - following indicator
  - Amber - pinned indicator, cancelled responses
  - Rose - failed responses

# Theme (theme.go)

	theme := styles.NewTheme()
	theme.SetCodeStyle("dracula")
	formatter := theme.ChromaFormatter() // "terminal256", "terminal16m", ...
*/
package styles
