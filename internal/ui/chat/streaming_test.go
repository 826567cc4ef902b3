// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streamchat/internal/store"
)

func TestSnapshotBuffer_KeepsNewest(t *testing.T) {
	b := NewSnapshotBuffer(1000)

	b.Observe(store.Snapshot{Version: 3})
	b.Observe(store.Snapshot{Version: 2})
	require.True(t, b.Pending())

	snap, ok := b.ForceFlush()
	require.True(t, ok)
	assert.Equal(t, uint64(3), snap.Version)
	assert.False(t, b.Pending())

	// A late, older snapshot after a flush is still stale.
	b.Observe(store.Snapshot{Version: 1})
	assert.False(t, b.Pending())

	_, ok = b.ForceFlush()
	assert.False(t, ok)
}

func TestSnapshotBuffer_RateLimitsFlush(t *testing.T) {
	b := NewSnapshotBuffer(1)

	b.Observe(store.Snapshot{Version: 1})
	_, ok := b.Flush()
	require.True(t, ok, "first frame is within budget")

	b.Observe(store.Snapshot{Version: 2})
	_, ok = b.Flush()
	assert.False(t, ok, "second frame inside the same second is held")
	assert.True(t, b.Pending())

	snap, ok := b.ForceFlush()
	require.True(t, ok)
	assert.Equal(t, uint64(2), snap.Version)
}

func TestSnapshotBuffer_Interval(t *testing.T) {
	b := NewSnapshotBuffer(0)
	assert.Equal(t, time.Second/DefaultMaxFPS, b.Interval())

	b.SetMaxFPS(50)
	assert.Equal(t, 20*time.Millisecond, b.Interval())

	b.SetMaxFPS(-1)
	assert.Equal(t, 20*time.Millisecond, b.Interval())
}
