// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// # Key Types
//
//   - Message: one chat message with identity, role, cumulative text and a
//     pending flag for assistant responses that have not produced content yet
//   - Role: user or assistant
//   - Statistics: timing for a single streamed response
//
// # Usage
//
//	user := model.NewUserMessage("Hello!")
//	reply := model.NewPendingAssistantMessage()
//	fmt.Println(user.ID < reply.ID) // true: IDs are time ordered
package model
