// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive terminal chat view.
//
// The Model owns no conversation state of its own. It submits input to a
// session.Controller and renders whatever the controller's message store
// publishes. Store snapshots arrive on the streaming goroutine and are held
// in a SnapshotBuffer until the next frame tick, which caps redraws at the
// configured frame rate.
//
// # Key Bindings
//
//   - Enter: send the input line (ignored while a response is streaming)
//   - Esc: stop the current response
//   - Up/Down, PgUp/PgDn: scroll the conversation
//   - Home/End: jump to the top, or back to the bottom and resume following
//   - Ctrl+C: quit
//
// Scrolling away from the bottom pins the view; new fragments then no longer
// move it until the user returns to the bottom or sends a new message.
package chat
