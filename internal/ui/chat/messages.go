// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/streamchat/internal/config"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg drives redraws while a response streams.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries UI settings from a reloaded config file.
type ConfigReloadedMsg struct {
	UI config.UIConfig
}
