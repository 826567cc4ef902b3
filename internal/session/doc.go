// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs request/response cycles against a streaming source.
//
// A Controller owns one cycle at a time. Each cycle moves through
//
//	Idle -> Submitting -> Streaming -> Completed | Failed | Aborted -> Idle
//
// and writes every change to the message store, which publishes snapshots
// to the rendering layer.
//
// # Key Types
//
//   - Controller: the per-cycle state machine
//   - Source: anything that streams text fragments for a Request
//   - Phase: the controller state reported to phase hooks
//
// # Usage
//
//	st := store.New()
//	ctrl := session.NewController(st, scroll.New(2), src,
//	    session.WithLogger(logger))
//
//	if ctrl.Submit(ctx, "Hello") {
//	    ctrl.Wait()
//	}
//
// # Failure Handling
//
// Source errors never escape the controller. The pending reply is finalized
// with a fixed apology and the next Submit works normally.
package session
