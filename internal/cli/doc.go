// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires configuration, logging and a streaming source into the
// streamchat commands.
//
// # Commands
//
//   - streamchat: full-screen chat (falls back to line mode without a TTY)
//   - streamchat chat: line-mode REPL with input history
//   - streamchat ask <prompt>: one-shot question, answer on stdout
//
// # Global Flags
//
//	--config PATH     config file (default ~/.streamchat/config.toml)
//	--provider NAME   gemini | ollama | cloud
//	--model NAME      model for the selected provider
//	-v, --verbose     debug logging
//
// # Usage
//
//	os.Exit(cli.Execute())
package cli
