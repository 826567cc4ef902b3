// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for streamchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ProviderConfig: Which streaming source to use and its system instruction
//   - UIConfig: Terminal settings that reload while the app is running
//   - Watcher: fsnotify-based reloader for the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (STREAMCHAT_*, GEMINI_API_KEY, OPENROUTER_API_KEY)
//   - ~/.streamchat/config.toml
//   - ~/.streamchat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Follow edits to the file:
//
//	w, _ := config.NewWatcher(path, logger)
//	go w.Run(ctx, func(c *config.Config) { apply(c.UI) })
package config
