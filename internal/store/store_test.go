// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streamchat/internal/model"
)

func TestAppend_PreservesOrder(t *testing.T) {
	s := New()
	u := model.NewUserMessage("hi")
	a := model.NewPendingAssistantMessage()

	require.NoError(t, s.Append(u))
	require.NoError(t, s.Append(a))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, u.ID, snap.Messages[0].ID)
	assert.Equal(t, a.ID, snap.Messages[1].ID)
	assert.Equal(t, uint64(2), snap.Version)
}

func TestAppend_Validation(t *testing.T) {
	existing := model.NewUserMessage("first")

	tests := []struct {
		name  string
		msg   model.Message
		field string
	}{
		{"empty id", model.Message{Role: model.RoleUser}, "id"},
		{"duplicate id", existing, "id"},
		{"unknown role", model.Message{ID: "x", Role: "system"}, "role"},
		{"pending user", model.Message{ID: "y", Role: model.RoleUser, Pending: true}, "pending"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			require.NoError(t, s.Append(existing))

			err := s.Append(tc.msg)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, ErrInvalidMessage)
			assert.Equal(t, 1, s.Len(), "failed append must not change the store")
		})
	}
}

func TestAppend_SecondPendingRejected(t *testing.T) {
	s := New()
	require.NoError(t, s.Append(model.NewPendingAssistantMessage()))

	err := s.Append(model.NewPendingAssistantMessage())
	require.Error(t, err)
	assert.Equal(t, 1, s.PendingCount())
}

func TestUpdateText(t *testing.T) {
	s := New()
	a := model.NewPendingAssistantMessage()
	require.NoError(t, s.Append(a))

	assert.True(t, s.UpdateText(a.ID, "He", false))
	got, _ := s.Get(a.ID)
	assert.Equal(t, "He", got.Text)
	assert.True(t, got.Pending)

	// Cumulative replace, not append.
	assert.True(t, s.UpdateText(a.ID, "Hello", true))
	got, _ = s.Get(a.ID)
	assert.Equal(t, "Hello", got.Text)
	assert.False(t, got.Pending)
}

func TestUpdateText_UnknownIDIsNoop(t *testing.T) {
	s := New()
	var published int
	s.Subscribe(func(Snapshot) { published++ })

	assert.False(t, s.UpdateText("msg_missing", "late", true))
	assert.Zero(t, published)
	assert.Equal(t, uint64(0), s.Snapshot().Version)
}

func TestUpdateText_UserMessagesImmutable(t *testing.T) {
	s := New()
	u := model.NewUserMessage("original")
	require.NoError(t, s.Append(u))

	assert.False(t, s.UpdateText(u.ID, "edited", true))
	got, _ := s.Get(u.ID)
	assert.Equal(t, "original", got.Text)
}

func TestMarkAllPendingFailed(t *testing.T) {
	s := New()
	u := model.NewUserMessage("x")
	a := model.NewPendingAssistantMessage()
	require.NoError(t, s.Append(u))
	require.NoError(t, s.Append(a))

	assert.Equal(t, 1, s.MarkAllPendingFailed("sorry"))

	got, _ := s.Get(a.ID)
	assert.Equal(t, "sorry", got.Text)
	assert.False(t, got.Pending)

	user, _ := s.Get(u.ID)
	assert.Equal(t, "x", user.Text)

	// Idempotent: nothing left to fail.
	version := s.Snapshot().Version
	assert.Equal(t, 0, s.MarkAllPendingFailed("again"))
	got, _ = s.Get(a.ID)
	assert.Equal(t, "sorry", got.Text)
	assert.Equal(t, version, s.Snapshot().Version)
}

func TestSubscribe_ReceivesEveryMutationInOrder(t *testing.T) {
	s := New()
	var versions []uint64
	var lengths []int
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		versions = append(versions, snap.Version)
		lengths = append(lengths, len(snap.Messages))
	})

	a := model.NewPendingAssistantMessage()
	require.NoError(t, s.Append(model.NewUserMessage("q")))
	require.NoError(t, s.Append(a))
	s.UpdateText(a.ID, "answer", true)

	assert.Equal(t, []uint64{1, 2, 3}, versions)
	assert.Equal(t, []int{1, 2, 2}, lengths)

	unsubscribe()
	unsubscribe()
	s.UpdateText(a.ID, "answer!", true)
	assert.Len(t, versions, 3)
}

func TestSubscribe_ObserverMayQuery(t *testing.T) {
	s := New()
	var seen int
	s.Subscribe(func(snap Snapshot) {
		seen = s.Len()
	})

	require.NoError(t, s.Append(model.NewUserMessage("q")))
	assert.Equal(t, 1, seen)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New()
	a := model.NewPendingAssistantMessage()
	require.NoError(t, s.Append(a))

	snap := s.Snapshot()
	s.UpdateText(a.ID, "changed", true)

	assert.Equal(t, "", snap.Messages[0].Text)
	assert.True(t, snap.Messages[0].Pending)

	pending, ok := snap.Pending()
	assert.True(t, ok)
	assert.Equal(t, a.ID, pending.ID)

	_, ok = s.Snapshot().Pending()
	assert.False(t, ok)
}

// TestPendingInvariant_Concurrent hammers the store from several goroutines
// and checks from an observer that no snapshot ever holds two pending messages.
func TestPendingInvariant_Concurrent(t *testing.T) {
	s := New()
	var mu sync.Mutex
	maxPending := 0
	s.Subscribe(func(snap Snapshot) {
		n := 0
		for _, m := range snap.Messages {
			if m.Pending {
				n++
			}
		}
		mu.Lock()
		if n > maxPending {
			maxPending = n
		}
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				msg := model.NewPendingAssistantMessage()
				if err := s.Append(msg); err == nil {
					s.UpdateText(msg.ID, "done", true)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxPending, 1)
	assert.Equal(t, 0, s.PendingCount())
}
