// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the ordered, in-memory list of chat messages.
//
// Every mutation publishes an immutable Snapshot to subscribers before the
// mutating call returns. Snapshots are copies: observers may keep them, hand
// them to another goroutine, or read them while the store keeps changing.
package store

import (
	"slices"
	"sync"

	"github.com/jeranaias/streamchat/internal/model"
)

// Snapshot is an immutable view of the store after one mutation.
type Snapshot struct {
	// Version increases by one with every published mutation.
	Version  uint64
	Messages []model.Message
}

// Pending returns the pending message in the snapshot, if any.
func (s Snapshot) Pending() (model.Message, bool) {
	for _, m := range s.Messages {
		if m.Pending {
			return m, true
		}
	}
	return model.Message{}, false
}

// Last returns the final message in the snapshot.
func (s Snapshot) Last() (model.Message, bool) {
	if len(s.Messages) == 0 {
		return model.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Observer receives snapshots synchronously, in mutation order.
type Observer func(Snapshot)

// Store is the ordered message collection.
type Store struct {
	// writeMu serializes mutate+publish so observers see versions in order.
	writeMu sync.Mutex

	mu        sync.RWMutex
	messages  []model.Message
	index     map[string]int
	version   uint64
	observers map[uint64]Observer
	nextObsID uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index:     make(map[string]int),
		observers: make(map[uint64]Observer),
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append inserts msg at the end of the list.
//
// It fails with a *ValidationError when msg has an empty or duplicate ID, an
// unknown role, is a pending user message, or would be a second pending
// message.
func (s *Store) Append(msg model.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if err := s.validateLocked(msg); err != nil {
		s.mu.Unlock()
		return err
	}
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

// UpdateText replaces the text of message id with text, the full cumulative
// content, and clears its pending flag when clearPending is set.
//
// Unknown IDs are ignored so that a late update racing a reset is harmless.
// User messages are immutable and are ignored too. It reports whether a
// message was changed.
func (s *Store) UpdateText(id, text string, clearPending bool) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i, ok := s.index[id]
	if !ok || s.messages[i].Role != model.RoleAssistant {
		s.mu.Unlock()
		return false
	}
	s.messages[i].Text = text
	if clearPending {
		s.messages[i].Pending = false
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

// MarkAllPendingFailed finalizes every pending message with fallback text.
// It returns the number of messages changed; with nothing pending it is a
// no-op and publishes nothing.
func (s *Store) MarkAllPendingFailed(fallback string) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	changed := 0
	for i := range s.messages {
		if s.messages[i].Pending {
			s.messages[i].Text = fallback
			s.messages[i].Pending = false
			changed++
		}
	}
	if changed == 0 {
		s.mu.Unlock()
		return 0
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.publish(snap)
	return changed
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Get returns a copy of the message with the given ID.
func (s *Store) Get(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Message{}, false
	}
	return s.messages[i], true
}

// PendingCount returns how many messages are pending. It is never above one.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.Pending {
			n++
		}
	}
	return n
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn for every future mutation and returns a function
// that removes it. Observers run on the mutating goroutine and may call the
// query methods, but must not mutate the store.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Store) validateLocked(msg model.Message) error {
	switch {
	case msg.ID == "":
		return &ValidationError{Field: "id", Message: "must not be empty"}
	case !msg.Role.Valid():
		return &ValidationError{Field: "role", Message: "unknown role " + string(msg.Role), ID: msg.ID}
	case msg.Pending && msg.Role == model.RoleUser:
		return &ValidationError{Field: "pending", Message: "user messages cannot be pending", ID: msg.ID}
	}
	if _, dup := s.index[msg.ID]; dup {
		return &ValidationError{Field: "id", Message: "duplicate identity", ID: msg.ID}
	}
	if msg.Pending {
		for _, m := range s.messages {
			if m.Pending {
				return &ValidationError{Field: "pending", Message: "another message is already pending", ID: msg.ID}
			}
		}
	}
	return nil
}

func (s *Store) commitLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	msgs := make([]model.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{Version: s.version, Messages: msgs}
}

func (s *Store) publish(snap Snapshot) {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
