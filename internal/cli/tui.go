// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/ui/chat"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

// runTUI starts the full-screen chat. Without a terminal on both ends it
// falls back to line mode.
func (a *App) runTUI(ctx context.Context) error {
	if !isTerminal(a.In) || !isTerminal(a.Out) {
		a.logger.Info("no terminal attached, using line mode")
		return a.runChat(ctx)
	}

	ctrl, policy, err := a.newController(ctx)
	if err != nil {
		return err
	}

	m := chat.New(chat.Options{
		Context:    ctx,
		Controller: ctrl,
		Policy:     policy,
		Theme:      styles.NewTheme(),
		Provider:   a.cfg.Provider.Name,
		ModelName:  a.cfg.ActiveModel(),
		UI:         a.cfg.UI,
		Logger:     a.logger,
	})

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(a.In),
		tea.WithOutput(a.Out),
	)

	watchCtx, stopWatch := context.WithCancel(ctx)
	var wg sync.WaitGroup
	a.watchConfig(watchCtx, &wg, func(cfg *config.Config) {
		p.Send(chat.ConfigReloadedMsg{UI: cfg.UI})
	})

	final, runErr := p.Run()
	stopWatch()
	wg.Wait()

	if fm, ok := final.(chat.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	ctrl.Wait()

	if runErr != nil {
		return fmt.Errorf("run chat: %w", runErr)
	}
	return nil
}

// watchConfig reloads UI settings while the chat runs. A missing config
// file means there is nothing to watch.
func (a *App) watchConfig(ctx context.Context, wg *sync.WaitGroup, apply func(*config.Config)) {
	if a.configPath == "" {
		return
	}
	if _, err := os.Stat(a.configPath); err != nil {
		return
	}

	w, err := config.NewWatcher(a.configPath, a.logger)
	if err != nil {
		a.logger.Warn("config watch disabled", zap.Error(err))
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Run(ctx, apply); err != nil {
			a.logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()
}
