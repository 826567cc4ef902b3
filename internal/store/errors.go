// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage is the sentinel wrapped by every ValidationError.
var ErrInvalidMessage = errors.New("invalid message")

// ValidationError reports a message that would break a store invariant.
// It indicates a programming error in the caller.
type ValidationError struct {
	Field   string
	Message string
	ID      string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id %s)", e.Field, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap allows errors.Is(err, ErrInvalidMessage).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidMessage
}
