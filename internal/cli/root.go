// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/logging"
	"github.com/jeranaias/streamchat/internal/scroll"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/store"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APPLICATION
// =============================================================================

// App holds what every command shares: streams, flags, and the config and
// logger built from them before the command runs.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// NewSource builds the streaming source. Defaults to NewSource.
	NewSource SourceFactory

	flags struct {
		configPath string
		provider   string
		model      string
		verbose    bool
	}

	cfg        *config.Config
	configPath string
	logger     *zap.Logger
}

// NewApp returns an App bound to the process streams.
func NewApp() *App {
	return &App{
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		NewSource: NewSource,
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app := NewApp()
	if err := NewRootCommand(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(app.Err, "Error:", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "streamchat",
		Short: "Stream chat responses from Gemini, Ollama or an OpenAI-compatible API",
		Long: `streamchat sends prompts to a generative language model and renders the
reply as it streams in, with fenced code highlighted.

Run without arguments to start the full-screen chat.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runTUI(cmd.Context())
		},
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default ~/.streamchat/config.toml)")
	pf.StringVar(&app.flags.provider, "provider", "", "provider: gemini, ollama or cloud")
	pf.StringVarP(&app.flags.model, "model", "m", "", "model for the selected provider")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newChatCommand(app), newAskCommand(app), newConfigCommand(app))
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *App) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.LoadFromPath(a.flags.configPath)
		a.configPath = a.flags.configPath
	} else {
		cfg, err = config.Load()
		a.configPath, _ = config.ConfigPathTOML()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.flags.provider != "" {
		cfg.Provider.Name = strings.ToLower(a.flags.provider)
	}
	if a.flags.model != "" {
		cfg.Provider.Model = a.flags.model
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	a.cfg = cfg

	// Line modes own the terminal only between prompts, so their logs go
	// to the file as well; only an explicit "-" sends them to stderr.
	logger, err := logging.New(cfg.Log, logging.Options{Verbose: a.flags.verbose})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.logger.Debug("config loaded",
		zap.String("path", a.configPath),
		zap.String("provider", cfg.Provider.Name),
		zap.String("model", cfg.ActiveModel()))
	return nil
}

// newController builds a fresh store, follow policy and controller for the
// configured provider.
func (a *App) newController(ctx context.Context) (*session.Controller, *scroll.Policy, error) {
	if a.NewSource == nil {
		a.NewSource = NewSource
	}
	src, err := a.NewSource(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}

	policy := scroll.New(a.cfg.UI.FollowTolerance)
	ctrl := session.NewController(store.New(), policy, src,
		session.WithLogger(a.logger),
		session.WithPhaseHook(func(p session.Phase) {
			a.logger.Debug("phase", zap.Stringer("phase", p))
		}),
	)
	return ctrl, policy, nil
}

// errResponse reports a cycle that ended without a complete reply.
var errResponse = errors.New("response did not complete")
