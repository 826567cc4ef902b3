// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
)

// bindStyle copies s onto a style that renders for r's output.
func bindStyle(r *lipgloss.Renderer, s lipgloss.Style) lipgloss.Style {
	return r.NewStyle().Inherit(s)
}

const chatHelp = `Commands:
  /help, /h     Show this help
  /stats, /s    Timing of the last response
  /history      List this conversation
  /quit, /q     Exit
  Ctrl+C        Stop the current response
  Ctrl+D        Exit`

func newChatCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive line-mode chat",
		Long: `Chat in plain line mode. Replies stream straight to the terminal, which
keeps scrollback and copy/paste working as usual.

Ctrl+C stops the current response; Ctrl+D or /quit exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd.Context())
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of user input at a time. io.EOF ends the
// session.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// historyReader is a liner-backed reader with persistent history.
type historyReader struct {
	line        *liner.State
	historyFile string
}

func newHistoryReader() *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &historyReader{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *historyReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *historyReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// scanReader reads lines from a non-terminal input such as a pipe.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in)}
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

func (a *App) runChat(ctx context.Context) error {
	ctrl, _, err := a.newController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Wait()
	defer ctrl.Cancel()

	interactive := isTerminal(a.In) && isTerminal(a.Out)
	var reader lineReader
	if interactive {
		reader = newHistoryReader()
	} else {
		reader = newScanReader(a.In)
	}
	defer reader.Close()

	return a.chatLoop(ctx, ctrl, reader, interactive)
}

// chatLoop reads prompts until EOF or /quit. Banners and prompts are only
// written in interactive mode so piped output holds nothing but replies.
func (a *App) chatLoop(ctx context.Context, ctrl *session.Controller, reader lineReader, interactive bool) error {
	renderer := lipgloss.NewRenderer(a.Out)
	renderer.SetColorProfile(colorProfile(a.Out))
	info := bindStyle(renderer, infoStyle)

	prompt := ""
	if interactive {
		fmt.Fprintln(a.Out, bindStyle(renderer, welcomeStyle).Render("streamchat")+" "+
			info.Render(a.cfg.Provider.Name+" / "+a.cfg.ActiveModel()))
		fmt.Fprintln(a.Out, info.Render("Type /help for commands."))
		// liner measures the prompt itself, so it stays unstyled.
		prompt = "> "
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := reader.Prompt(prompt)
		switch {
		case errors.Is(err, io.EOF):
			if interactive {
				fmt.Fprintln(a.Out)
			}
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(a.Out, info.Render("(Ctrl+D or /quit to exit)"))
			continue
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := a.chatCommand(line, ctrl, info); quit {
				return nil
			}
			continue
		}

		if interactive {
			fmt.Fprint(a.Out, bindStyle(renderer, promptStyle).Render("assistant: "))
		}
		outcome, _ := streamReply(ctx, ctrl, line, a.Out)
		a.logger.Debug("cycle finished", zap.Stringer("outcome", outcome))
		switch outcome {
		case session.PhaseAborted:
			fmt.Fprintln(a.Err, styles.RenderWarning("response stopped"))
		case session.PhaseFailed:
			fmt.Fprintln(a.Err, styles.RenderError("response failed; see the log for details"))
		}
	}
}

// chatCommand runs a slash command and reports whether to exit.
func (a *App) chatCommand(line string, ctrl *session.Controller, info lipgloss.Style) bool {
	name, _, _ := strings.Cut(line, " ")
	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return true
	case "/help", "/h", "/?":
		fmt.Fprintln(a.Out, chatHelp)
	case "/stats", "/s":
		stats := ctrl.Stats()
		if stats.TotalDuration == 0 {
			fmt.Fprintln(a.Out, info.Render("No responses yet."))
		} else {
			fmt.Fprintln(a.Out, info.Render(stats.Format()))
		}
	case "/history":
		a.printHistory(ctrl, info)
	default:
		fmt.Fprintln(a.Err, styles.RenderWarning("unknown command "+name+" (try /help)"))
	}
	return false
}

// historyPreviewLen is how much of each message /history shows.
const historyPreviewLen = 60

// printHistory lists the conversation one message per line.
func (a *App) printHistory(ctrl *session.Controller, info lipgloss.Style) {
	msgs := ctrl.Store().Snapshot().Messages
	if len(msgs) == 0 {
		fmt.Fprintln(a.Out, info.Render("No messages yet."))
		return
	}
	for i, m := range msgs {
		fmt.Fprintf(a.Out, "%3d  %-9s  %s\n", i+1, strings.ToLower(m.Role.DisplayName()), m.Preview(historyPreviewLen))
	}
}
