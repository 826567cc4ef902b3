// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package segment splits message text into prose and fenced code segments.
//
// Parse works on partial text: a response that is still streaming may end in
// the middle of a code block, and the open block is still reported as a code
// segment so it can be rendered live. Parse keeps no state between calls;
// callers re-parse the full buffer on every update.
package segment

import "strings"

// Fence is the marker that opens and closes a code block.
const Fence = "```"

// DefaultLanguage is reported for code blocks without a language token.
const DefaultLanguage = "plaintext"

// Kind distinguishes prose from code.
type Kind int

const (
	KindProse Kind = iota
	KindCode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindProse:
		return "prose"
	case KindCode:
		return "code"
	default:
		return "unknown"
	}
}

// Segment is one classified region of message text.
type Segment struct {
	Kind    Kind
	Content string

	// Code segments only.
	Language string
	// Info is the raw text between the opening fence and the newline.
	Info string
	// Closed is false while the closing fence has not arrived yet.
	Closed bool
	// Inline marks a block opened and closed on one line (```x```).
	Inline bool
}

// Prose builds a prose segment.
func Prose(content string) Segment {
	return Segment{Kind: KindProse, Content: content}
}

// Code builds a closed code segment whose info string is the language.
func Code(language, content string) Segment {
	return Segment{
		Kind:     KindCode,
		Content:  content,
		Language: languageOf(language),
		Info:     language,
		Closed:   true,
	}
}

// IsCode reports whether s is a code segment.
func (s Segment) IsCode() bool {
	return s.Kind == KindCode
}

// Parse splits text into ordered segments. Empty text yields no segments.
func Parse(text string) []Segment {
	var segs []Segment
	rest := text

	for len(rest) > 0 {
		open := strings.Index(rest, Fence)
		if open < 0 {
			segs = appendProse(segs, rest)
			break
		}
		segs = appendProse(segs, rest[:open])
		rest = rest[open+len(Fence):]

		nl := strings.IndexByte(rest, '\n')
		header := rest
		if nl >= 0 {
			header = rest[:nl]
		}

		// ```code``` on a single line
		if end := strings.Index(header, Fence); end >= 0 {
			segs = append(segs, Segment{
				Kind:     KindCode,
				Content:  header[:end],
				Language: DefaultLanguage,
				Closed:   true,
				Inline:   true,
			})
			rest = rest[end+len(Fence):]
			continue
		}

		// Opening line still streaming: the language may be incomplete.
		if nl < 0 {
			segs = append(segs, Segment{
				Kind:     KindCode,
				Language: languageOf(header),
				Info:     header,
			})
			break
		}

		body := rest[nl+1:]
		end := strings.Index(body, Fence)
		if end < 0 {
			segs = append(segs, Segment{
				Kind:     KindCode,
				Content:  body,
				Language: languageOf(header),
				Info:     header,
			})
			break
		}

		segs = append(segs, Segment{
			Kind:     KindCode,
			Content:  body[:end],
			Language: languageOf(header),
			Info:     header,
			Closed:   true,
		})
		rest = body[end+len(Fence):]
	}

	return segs
}

// Join re-inserts fence syntax and concatenates the segments. For text with
// balanced fences, Join(Parse(text)) == text.
func Join(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.Kind != KindCode {
			sb.WriteString(s.Content)
			continue
		}
		sb.WriteString(Fence)
		if s.Inline {
			sb.WriteString(s.Content)
			sb.WriteString(Fence)
			continue
		}
		sb.WriteString(s.Info)
		sb.WriteByte('\n')
		sb.WriteString(s.Content)
		if s.Closed {
			sb.WriteString(Fence)
		}
	}
	return sb.String()
}

// HasOpenFence reports whether the last segment is a code block that has not
// been closed yet.
func HasOpenFence(segs []Segment) bool {
	if len(segs) == 0 {
		return false
	}
	last := segs[len(segs)-1]
	return last.IsCode() && !last.Closed
}

func appendProse(segs []Segment, text string) []Segment {
	if text == "" {
		return segs
	}
	return append(segs, Prose(text))
}

// languageOf takes the first word of a fence info string.
func languageOf(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return DefaultLanguage
	}
	return fields[0]
}
