// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hi")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Pending {
		t.Error("user messages must never be pending")
	}
	if msg.Text != "hi" {
		t.Errorf("Text = %q, want %q", msg.Text, "hi")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID %q should carry the msg_ prefix", msg.ID)
	}
}

func TestNewPendingAssistantMessage(t *testing.T) {
	msg := NewPendingAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if !msg.Pending {
		t.Error("new assistant messages start pending")
	}
	if !msg.IsEmpty() {
		t.Errorf("new assistant messages start empty, got %q", msg.Text)
	}
}

// TestNewID_UniqueAndOrdered creates IDs back to back, the way a user message
// and its paired assistant message are created in the same instant.
func TestNewID_UniqueAndOrdered(t *testing.T) {
	const n = 5000
	seen := make(map[string]bool, n)
	prev := ""

	for i := 0; i < n; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate ID %q after %d iterations", id, i)
		}
		seen[id] = true
		if prev != "" && id <= prev {
			t.Fatalf("ID %q is not greater than previous %q", id, prev)
		}
		prev = id
	}
}

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{Role("system"), false},
		{Role(""), false},
	}

	for _, tc := range tests {
		if got := tc.role.Valid(); got != tc.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "héllo wörld", 8, "héllo..."},
		{"tiny limit", "hello", 2, "he"},
		{"multiline", "line one\n\n  line two\n", 20, "line one line two"},
		{"code", "```go\nfunc main() {}\n```", 12, "```go fun..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := Message{Text: tc.text}
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatistics_RecordFragment(t *testing.T) {
	stats := NewStatistics()
	time.Sleep(2 * time.Millisecond)

	stats.RecordFragment()
	first := stats.FirstTokenTime
	stats.RecordFragment()

	if stats.Fragments != 2 {
		t.Errorf("Fragments = %d, want 2", stats.Fragments)
	}
	if !stats.FirstTokenTime.Equal(first) {
		t.Error("FirstTokenTime must only be recorded once")
	}
	if stats.TTFT <= 0 {
		t.Errorf("TTFT = %v, want > 0", stats.TTFT)
	}
}

func TestStatistics_Format(t *testing.T) {
	stats := Statistics{
		Fragments:     42,
		TTFT:          234 * time.Millisecond,
		TotalDuration: 2500 * time.Millisecond,
	}

	want := "2.5s | 42 chunks | TTFT 234ms"
	if got := stats.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	stats.TotalDuration = 850 * time.Millisecond
	if got := stats.Format(); !strings.HasPrefix(got, "850ms") {
		t.Errorf("Format() = %q, want prefix 850ms", got)
	}
}
