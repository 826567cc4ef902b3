// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the config and UI packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// String Utilities:
//   - StringWidth, TruncateWidth, PadRight: terminal column aware sizing
//
// # Usage
//
//	// Fit a status line into the terminal
//	line := util.TruncateWidth(status, width)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
package util
