// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"syscall"

	"github.com/ollama/ollama/api"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama server or transport.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so errors.Is(err, ErrNotRunning)
// works for wrapped causes.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeServer
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

// classify maps transport and API errors onto ClientError. Cancellation is
// returned unchanged so callers can tell it apart from failure.
func classify(err error) error {
	var status api.StatusError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
	case errors.As(err, &status) && status.StatusCode == http.StatusNotFound:
		return &ClientError{Type: ErrTypeModelNotFound, Message: ErrModelNotFound.Message, Cause: err}
	case errors.As(err, &status):
		return &ClientError{Type: ErrTypeServer, Message: "ollama returned " + http.StatusText(status.StatusCode), Cause: err}
	case strings.Contains(err.Error(), "not found"):
		// The server reports a missing model in the NDJSON body, not the status.
		return &ClientError{Type: ErrTypeModelNotFound, Message: ErrModelNotFound.Message, Cause: err}
	default:
		return &ClientError{Type: ErrTypeUnknown, Message: "ollama request failed", Cause: err}
	}
}
