// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/streamchat/internal/segment"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock represents a rendered code block.
type CodeBlock struct {
	Language string
	Code     string
	// Closed is false while the closing fence has not arrived yet
	Closed   bool
	MaxWidth int

	theme *styles.Theme
}

// NewCodeBlock creates a code block from a parsed code segment.
func NewCodeBlock(seg segment.Segment, theme *styles.Theme) CodeBlock {
	return CodeBlock{
		Language: seg.Language,
		Code:     seg.Content,
		Closed:   seg.Closed,
		MaxWidth: 80,
		theme:    theme,
	}
}

// SetMaxWidth sets the maximum width for the code block.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render renders the code block with a language badge, line numbers and
// syntax highlighting. An unclosed block gets a trailing "writing" marker.
func (c CodeBlock) Render() string {
	code := strings.TrimRight(c.Code, "\n")
	highlighted := highlightCode(code, c.Language, c.theme.CodeStyle, c.theme.ChromaFormatter())
	lines := splitHighlighted(highlighted, strings.Count(code, "\n")+1)

	var b strings.Builder
	b.WriteString(c.theme.CodeLangBadge.Render(c.Language))
	for i, line := range lines {
		if code == "" && i == 0 {
			break
		}
		b.WriteString("\n")
		b.WriteString(c.theme.CodeLineNumber.Render(strconv.Itoa(i + 1)))
		b.WriteString(line)
	}
	if !c.Closed {
		b.WriteString("\n")
		b.WriteString(c.theme.CodeStreaming.Render("writing..."))
	}

	maxWidth := c.MaxWidth
	if maxWidth < 20 {
		maxWidth = 20
	}
	return c.theme.CodeBlock.MaxWidth(maxWidth).Render(b.String())
}

// RenderInlineCode renders a single-line fenced snippet with a subtle background.
func RenderInlineCode(code string, theme *styles.Theme) string {
	return theme.InlineCode.Render(code)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies syntax highlighting using chroma. The code is returned
// unchanged if highlighting fails.
func highlightCode(code, language, styleName, formatterName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// splitHighlighted splits formatter output into exactly n lines. Lexers may
// append a newline followed by reset sequences; anything past line n is
// folded into the last line so escape codes are not lost.
func splitHighlighted(s string, n int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return lines
	}
	tail := strings.Join(lines[n-1:], "")
	return append(lines[:n-1], tail)
}

// IsKnownCodeStyle reports whether chroma has a style with this name.
func IsKnownCodeStyle(name string) bool {
	return slices.Contains(chromaStyles.Names(), name)
}
