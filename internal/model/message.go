// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in the chat.
//
// Messages are values: the store hands out copies, so a Message held by a
// renderer never changes underneath it.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Text is the full accumulated content. During streaming it is replaced
	// with successively longer cumulative text.
	Text string `json:"text"`

	// Pending is true while an assistant response has produced no content yet.
	Pending bool `json:"-"`
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Timestamp: time.Now(),
		Text:      text,
	}
}

// NewPendingAssistantMessage creates an empty assistant message awaiting content.
func NewPendingAssistantMessage() Message {
	return Message{
		ID:        NewID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Pending:   true,
	}
}

// IsEmpty returns true if the message has no text.
func (m Message) IsEmpty() bool {
	return len(m.Text) == 0
}

// Preview returns the text on one line, whitespace runs collapsed, cut to
// maxLen runes with a trailing "..." when it is longer.
func (m Message) Preview(maxLen int) string {
	flat := strings.Join(strings.Fields(m.Text), " ")
	runes := []rune(flat)
	if len(runes) <= maxLen {
		return flat
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// NewID returns a time-ordered unique message identifier.
//
// UUIDv7 carries a millisecond timestamp plus a per-process monotonic
// sequence, so two IDs minted in the same instant still sort in creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return "msg_" + uuid.NewString()
	}
	return "msg_" + id.String()
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing and fragment counts for one streamed response.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	Fragments int

	// Derived metrics (computed on Finalize)
	TTFT          time.Duration
	TotalDuration time.Duration
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordFragment counts a received fragment and records the first one's arrival.
func (s *Statistics) RecordFragment() {
	s.Fragments++
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes the final statistics.
func (s *Statistics) Finalize() {
	s.EndTime = time.Now()
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}

// Format returns a short summary such as "2.5s | 42 chunks | TTFT 234ms".
func (s Statistics) Format() string {
	return fmt.Sprintf("%s | %d chunks | TTFT %dms",
		formatDuration(s.TotalDuration), s.Fragments, s.TTFT.Milliseconds())
}

// formatDuration formats a duration as "850ms" or "2.5s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
