// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/scroll"
	"github.com/jeranaias/streamchat/internal/store"
)

// Apology replaces the reply text when the source fails.
const Apology = "I'm sorry, I encountered an error. Please try again."

// CancelledText is shown when a cycle is cancelled before any content arrived.
const CancelledText = "Response cancelled."

// =============================================================================
// PHASES
// =============================================================================

// Phase is the controller state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseStreaming
	PhaseCompleted
	PhaseFailed
	PhaseAborted
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseStreaming:
		return "streaming"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether p ends a cycle.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseAborted
}

// PhaseHook is called on every transition, from the goroutine that made it.
type PhaseHook func(Phase)

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPhaseHook adds a transition observer.
func WithPhaseHook(h PhaseHook) Option {
	return func(c *Controller) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs one request/response cycle at a time.
type Controller struct {
	store  *store.Store
	policy *scroll.Policy
	source Source
	logger *zap.Logger
	hooks  []PhaseHook

	mu     sync.Mutex
	phase  Phase
	last   Phase
	cancel context.CancelFunc
	done   chan struct{}
	stats  model.Statistics

	// IDs of messages left out of future Request.History.
	excluded map[string]bool
}

// NewController creates an idle controller.
func NewController(st *store.Store, policy *scroll.Policy, src Source, opts ...Option) *Controller {
	c := &Controller{
		store:    st,
		policy:   policy,
		source:   src,
		logger:   zap.NewNop(),
		excluded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit starts a cycle for input.
//
// Input is NFC-normalized and trimmed. Blank input, or a cycle already in
// flight, makes Submit a no-op that returns false. Otherwise the user message
// and a pending reply are in the store when Submit returns, and the response
// streams in on its own goroutine. Cancelling ctx aborts the cycle.
func (c *Controller) Submit(ctx context.Context, input string) bool {
	text := strings.TrimSpace(norm.NFC.String(input))
	if text == "" {
		c.logger.Debug("ignoring blank submission")
		return false
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		phase := c.phase
		c.mu.Unlock()
		c.logger.Debug("ignoring submission while busy", zap.Stringer("phase", phase))
		return false
	}
	c.phase = PhaseSubmitting
	cycleCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()
	c.notify(PhaseSubmitting)

	history := c.history()

	user := model.NewUserMessage(text)
	if err := c.store.Append(user); err != nil {
		c.logger.Error("appending user message", zap.Error(err))
		c.finish(PhaseFailed, model.Statistics{})
		return false
	}
	if c.policy != nil {
		c.policy.Reset()
	}

	reply := model.NewPendingAssistantMessage()
	if err := c.store.Append(reply); err != nil {
		c.logger.Error("appending pending reply", zap.String("user_id", user.ID), zap.Error(err))
		c.exclude(user.ID)
		c.finish(PhaseFailed, model.Statistics{})
		return true
	}

	c.setPhase(PhaseStreaming)
	c.logger.Info("stream started",
		zap.String("user_id", user.ID),
		zap.String("reply_id", reply.ID),
		zap.Int("history", len(history)))

	seq := c.source.Stream(cycleCtx, Request{Prompt: text, History: history})
	go c.consume(cycleCtx, user.ID, reply.ID, seq)
	return true
}

// consume applies fragments to the pending reply until the source ends.
func (c *Controller) consume(ctx context.Context, userID, replyID string, seq iter.Seq2[string, error]) {
	stats := model.NewStatistics()
	outcome := PhaseFailed
	defer func() {
		stats.Finalize()
		c.finish(outcome, *stats)
	}()

	var sb strings.Builder
	var streamErr error

	// A fragment that arrives together with a cancel is still kept, so the
	// aborted reply shows everything that was received.
	for fragment, err := range seq {
		if err != nil {
			streamErr = err
			break
		}
		if fragment != "" {
			sb.WriteString(fragment)
			stats.RecordFragment()
			c.store.UpdateText(replyID, sb.String(), true)
		}
		if ctx.Err() != nil {
			streamErr = ctx.Err()
			break
		}
	}

	switch {
	case streamErr == nil:
		outcome = PhaseCompleted
		c.store.UpdateText(replyID, sb.String(), true)
		c.logger.Info("stream completed",
			zap.String("reply_id", replyID),
			zap.Int("fragments", stats.Fragments),
			zap.Int("bytes", sb.Len()))

	case ctx.Err() != nil:
		outcome = PhaseAborted
		text := sb.String()
		if text == "" {
			text = CancelledText
		}
		c.store.UpdateText(replyID, text, true)
		c.exclude(userID, replyID)
		c.logger.Info("stream cancelled",
			zap.String("reply_id", replyID),
			zap.Int("fragments", stats.Fragments))

	default:
		outcome = PhaseFailed
		if c.store.MarkAllPendingFailed(Apology) == 0 {
			// Content had already arrived; the partial text is replaced too.
			c.store.UpdateText(replyID, Apology, true)
		}
		c.exclude(userID, replyID)
		c.logger.Warn("stream failed",
			zap.String("reply_id", replyID),
			zap.Int("fragments", stats.Fragments),
			zap.Error(streamErr))
	}
}

// finish is the single cleanup step of a cycle.
func (c *Controller) finish(outcome Phase, stats model.Statistics) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.phase = outcome
	c.last = outcome
	c.stats = stats
	c.mu.Unlock()
	c.notify(outcome)

	c.mu.Lock()
	c.phase = PhaseIdle
	done := c.done
	c.mu.Unlock()
	c.notify(PhaseIdle)

	if done != nil {
		close(done)
	}
}

// Cancel aborts the cycle in flight. It reports whether there was one.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Wait blocks until the current cycle, if any, has returned to Idle.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the current phase.
func (c *Controller) State() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Busy reports whether a cycle is in flight.
func (c *Controller) Busy() bool {
	return c.State() != PhaseIdle
}

// LastOutcome returns the terminal phase of the most recent cycle, or
// PhaseIdle before the first cycle ends.
func (c *Controller) LastOutcome() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Stats returns the statistics of the most recent finished cycle.
func (c *Controller) Stats() model.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Store returns the message store the controller writes to.
func (c *Controller) Store() *store.Store {
	return c.store
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.notify(p)
}

func (c *Controller) notify(p Phase) {
	for _, h := range c.hooks {
		h(p)
	}
}

func (c *Controller) exclude(ids ...string) {
	c.mu.Lock()
	for _, id := range ids {
		c.excluded[id] = true
	}
	c.mu.Unlock()
}

// history returns the finalized messages that should give the source context.
func (c *Controller) history() []model.Message {
	snap := c.store.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		if m.Pending || m.IsEmpty() || c.excluded[m.ID] {
			continue
		}
		out = append(out, m)
	}
	return out
}
