// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package segment

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "prose only",
			input: "just some words",
			want:  []Segment{Prose("just some words")},
		},
		{
			name:  "unterminated fence",
			input: "Hello ```js\nconst x=1;",
			want: []Segment{
				Prose("Hello "),
				{Kind: KindCode, Language: "js", Info: "js", Content: "const x=1;"},
			},
		},
		{
			name:  "prose around closed fence",
			input: "a```py\nprint(1)```b",
			want:  []Segment{Prose("a"), Code("py", "print(1)"), Prose("b")},
		},
		{
			name:  "missing language",
			input: "```\nls -la\n```",
			want: []Segment{
				{Kind: KindCode, Language: DefaultLanguage, Content: "ls -la\n", Closed: true},
			},
		},
		{
			name:  "info string with attributes",
			input: "```go title=main.go\npackage main\n```",
			want: []Segment{
				{Kind: KindCode, Language: "go", Info: "go title=main.go", Content: "package main\n", Closed: true},
			},
		},
		{
			name:  "two blocks",
			input: "one\n```a\nx\n```\ntwo\n```b\ny\n```\n",
			want: []Segment{
				Prose("one\n"),
				Code("a", "x\n"),
				Prose("\ntwo\n"),
				Code("b", "y\n"),
				Prose("\n"),
			},
		},
		{
			name:  "adjacent blocks",
			input: "```a\nx```" + "```b\ny```",
			want:  []Segment{Code("a", "x"), Code("b", "y")},
		},
		{
			name:  "empty block",
			input: "```\n```",
			want: []Segment{
				{Kind: KindCode, Language: DefaultLanguage, Closed: true},
			},
		},
		{
			name:  "opening line still streaming",
			input: "See: ```pyth",
			want: []Segment{
				Prose("See: "),
				{Kind: KindCode, Language: "pyth", Info: "pyth"},
			},
		},
		{
			name:  "bare fence at end",
			input: "text ```",
			want: []Segment{
				Prose("text "),
				{Kind: KindCode, Language: DefaultLanguage},
			},
		},
		{
			name:  "single line block",
			input: "run ```make test``` now",
			want: []Segment{
				Prose("run "),
				{Kind: KindCode, Language: DefaultLanguage, Content: "make test", Closed: true, Inline: true},
				Prose(" now"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.input)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a```py\nprint(1)```b",
		"```\n```",
		"intro\n\n```go\nfunc main() {}\n```\n\noutro",
		"```js\nlet a = 1\n```" + "```\nraw\n```",
		"inline ```x``` and more ```y```",
		"ünïcödé ```rust\nfn main() { println!(\"héllo\"); }\n``` fin",
	}

	for _, in := range inputs {
		if got := Join(Parse(in)); got != in {
			t.Errorf("Join(Parse(%q)) = %q", in, got)
		}
	}
}

// TestParse_Streaming feeds a response one byte at a time, the way fragments
// arrive, and checks every prefix parses to something consistent.
func TestParse_Streaming(t *testing.T) {
	full := "Here:\n```go\nfmt.Println(1)\n```\nDone."

	for i := 1; i <= len(full); i++ {
		prefix := full[:i]
		segs := Parse(prefix)

		if len(segs) == 0 {
			t.Fatalf("prefix %q produced no segments", prefix)
		}

		open := strings.Count(prefix, Fence)%2 == 1
		if open != HasOpenFence(segs) {
			t.Errorf("prefix %q: HasOpenFence = %v, want %v", prefix, HasOpenFence(segs), open)
		}

		last := segs[len(segs)-1]
		if open {
			if !last.IsCode() {
				t.Fatalf("prefix %q: last segment is %v, want code", prefix, last.Kind)
			}
			header := strings.Index(prefix, "```go\n")
			if header >= 0 {
				want := prefix[header+len("```go\n"):]
				if last.Content != want {
					t.Errorf("prefix %q: partial content = %q, want %q", prefix, last.Content, want)
				}
			}
		}
	}

	final := Parse(full)
	want := []Segment{Prose("Here:\n"), Code("go", "fmt.Println(1)\n"), Prose("\nDone.")}
	if diff := cmp.Diff(want, final); diff != "" {
		t.Errorf("final parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Idempotent(t *testing.T) {
	in := "x```sh\necho hi\n```y"
	first := Parse(in)
	second := Parse(in)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Parse is not deterministic:\n%s", diff)
	}
}

func TestKind_String(t *testing.T) {
	if KindProse.String() != "prose" || KindCode.String() != "code" {
		t.Errorf("unexpected kind names %q %q", KindProse, KindCode)
	}
	if Kind(9).String() != "unknown" {
		t.Errorf("Kind(9).String() = %q", Kind(9).String())
	}
}
