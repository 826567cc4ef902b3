// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streamchat/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the config file",
	}
	cmd.AddCommand(newConfigInitCommand(app), newConfigShowCommand(app))
	return cmd
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write the default settings to the config file, or to --config.

--provider and --model are written into the new file. An existing file is
left alone unless --force is given.`,
		Example: `  streamchat config init
  streamchat config init --provider ollama --model qwen2.5-coder`,
		Args: cobra.NoArgs,
		// The file may not exist or may not parse yet.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.initConfig(force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings with API keys redacted",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintf(app.Out, "# %s\n", app.configPath)
			fmt.Fprint(app.Out, app.cfg.String())
			return nil
		},
	}
}

// initConfig writes the defaults plus flag overrides.
func (a *App) initConfig(force bool) error {
	path := a.flags.configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check %s: %w", path, err)
	}

	cfg := config.Default()
	if a.flags.provider != "" {
		cfg.Provider.Name = strings.ToLower(a.flags.provider)
	}
	if a.flags.model != "" {
		cfg.Provider.Model = a.flags.model
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	var err error
	if a.flags.configPath == "" {
		err = config.Save(cfg)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Wrote %s\n", path)
	return nil
}
