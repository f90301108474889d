// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for rigrun-assist commands.
//
// Commands return errors and never print them. main decides how to show
// them and which exit code to use.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/cloud"
	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitInputError   = 6
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with context.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError is invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError creates a command error.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError creates a validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCodeFor maps an error to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var verr *ValidationError
	var cverrs config.ValidateErrors
	var cverr config.ValidationError
	switch {
	case errors.As(err, &verr):
		return ExitUsageError
	case errors.As(err, &cverrs), errors.As(err, &cverr):
		return ExitConfigError
	case errors.Is(err, attach.ErrTooLarge), errors.Is(err, attach.ErrUnsupportedImage),
		errors.Is(err, attach.ErrLimitExceeded), errors.Is(err, session.ErrEmptySelection):
		return ExitInputError
	}

	var terr *cloud.TransportError
	switch {
	case errors.Is(err, cloud.ErrNotConfigured):
		return ExitConfigError
	case errors.Is(err, cloud.ErrAuthFailed), errors.Is(err, cloud.ErrPlanRequired):
		return ExitAuthError
	case errors.Is(err, cloud.ErrRateLimited), errors.As(err, &terr):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// DisplayError writes err in the standard format. Request failures get
// the hint for their kind.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var serr *session.SubmitError
	if !errors.As(err, &serr) {
		return
	}
	if hint := cloud.Hint(serr.Kind); hint != "" {
		fmt.Fprintf(w, "%s %s\n", HintStyle.Render("[HINT]"), hint)
	}
}
