// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// WrapProse word-wraps text to width columns. Words longer than the width are
// hard-broken so nothing overflows the viewport. ANSI sequences are preserved.
func WrapProse(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wrap.String(wordwrap.String(text, width), width)
}

// trimProse drops the newlines that separate prose from adjacent fences.
func trimProse(text string) string {
	return strings.Trim(text, "\n")
}
