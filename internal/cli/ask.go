// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/streamchat/internal/segment"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/ui/components"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

func newAskCommand(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Ask a single question and print the answer",
		Long: `Send one prompt and print the reply.

On a terminal the finished reply is printed with code blocks highlighted.
When stdout is redirected, or with --raw, the reply is streamed as plain
text. With no arguments the prompt is read from stdin.`,
		Example: `  streamchat ask "What is a goroutine?"
  git diff | streamchat ask --provider ollama
  streamchat ask --raw "Write a haiku" > haiku.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" && !isTerminal(app.In) {
				data, err := io.ReadAll(app.In)
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = string(data)
			}
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("no prompt given")
			}
			return app.runAsk(cmd.Context(), prompt, raw || !isTerminal(app.Out))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "stream plain text even on a terminal")
	return cmd
}

func (a *App) runAsk(ctx context.Context, prompt string, raw bool) error {
	ctrl, _, err := a.newController(ctx)
	if err != nil {
		return err
	}

	var outcome session.Phase
	if raw {
		outcome, _ = streamReply(ctx, ctrl, prompt, a.Out)
	} else {
		outcome = a.askRendered(ctx, ctrl, prompt)
	}

	if outcome != session.PhaseCompleted {
		return fmt.Errorf("%w: %s", errResponse, outcome)
	}
	return nil
}

// askRendered waits for the whole reply, then prints it with code blocks
// highlighted for the terminal.
func (a *App) askRendered(ctx context.Context, ctrl *session.Controller, prompt string) session.Phase {
	fmt.Fprint(a.Err, infoStyle.Render("thinking..."))
	outcome, _ := streamReply(ctx, ctrl, prompt, io.Discard)
	fmt.Fprint(a.Err, "\r\033[K")

	last, ok := ctrl.Store().Snapshot().Last()
	if !ok {
		return outcome
	}

	lipgloss.SetColorProfile(colorProfile(a.Out))
	theme := styles.NewThemeWithProfile(colorProfile(a.Out), true)
	theme.SetCodeStyle(a.cfg.UI.CodeStyle)

	fmt.Fprintln(a.Out, components.RenderSegments(segment.Parse(last.Text), terminalWidth(a.Out), theme))
	return outcome
}
