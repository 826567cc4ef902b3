// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/jeranaias/streamchat/internal/session"
)

// streamReply submits prompt and copies the reply to w as it streams.
// An interrupt while the reply streams cancels only this cycle.
//
// It returns the outcome of the cycle and whether the controller accepted
// the prompt at all.
func streamReply(ctx context.Context, ctrl *session.Controller, prompt string, w io.Writer) (session.Phase, bool) {
	cycleCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	printer := newStreamPrinter(w)
	unsubscribe := ctrl.Store().Subscribe(printer.Observe)
	defer unsubscribe()

	if !ctrl.Submit(cycleCtx, prompt) {
		return session.PhaseIdle, false
	}
	ctrl.Wait()

	if printer.Text() != "" {
		_, _ = io.WriteString(w, "\n")
	}
	return ctrl.LastOutcome(), true
}
