// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the credential is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates the credential was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the request was throttled.
	ErrRateLimited = errors.New("rate limited")

	// ErrPlanRequired indicates the credential's plan does not cover the request.
	ErrPlanRequired = errors.New("plan does not allow this request")
)

// TransportError is the catch-all failure. Message is the underlying
// error text shown to the user.
type TransportError struct {
	Status  int // HTTP status, 0 when no response was received
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request failed (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// mapError converts an SDK error into the package taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, apiMessage(apiErr))
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiMessage(apiErr))
		case http.StatusForbidden, http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", ErrPlanRequired, apiMessage(apiErr))
		default:
			return &TransportError{Status: apiErr.StatusCode, Message: apiMessage(apiErr), Err: err}
		}
	}

	return &TransportError{Message: err.Error(), Err: err}
}

// apiMessage extracts the human-readable part of an API error.
func apiMessage(apiErr *anthropic.Error) string {
	msg := apiErr.Error()
	if m := extractErrorMessage(msg); m != "" {
		return m
	}
	return msg
}

// apiErrorBody is the Messages API error envelope.
type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// extractErrorMessage pulls error.message out of the JSON body embedded in
// an SDK error string. Returns "" when there is no parseable body.
func extractErrorMessage(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	var body apiErrorBody
	if err := json.Unmarshal([]byte(s[start:]), &body); err != nil {
		return ""
	}
	return body.Error.Message
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// ErrorKind is the display category of an error.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindConfiguration
	KindAuth
	KindThrottled
	KindPlanRequired
	KindCanceled
	KindTransport
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindAuth:
		return "auth"
	case KindThrottled:
		return "throttled"
	case KindPlanRequired:
		return "plan_required"
	case KindCanceled:
		return "canceled"
	default:
		return "transport"
	}
}

// Classify returns the display category of err.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ErrAuthFailed):
		return KindAuth
	case errors.Is(err, ErrRateLimited):
		return KindThrottled
	case errors.Is(err, ErrPlanRequired):
		return KindPlanRequired
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindTransport
	}
}

// Hint returns the user-facing advice for a kind.
func Hint(kind ErrorKind) string {
	switch kind {
	case KindConfiguration:
		return "No API key is set. Run 'rigrun-assist key' or press Ctrl+K to add one."
	case KindAuth:
		return "The API key was rejected. Re-enter it with 'rigrun-assist key' or Ctrl+K."
	case KindThrottled:
		return "Too many requests. Wait a moment and try again."
	case KindPlanRequired:
		return "Your plan does not include this model. Pick a free-tier model or upgrade."
	case KindCanceled:
		return "The request was canceled."
	case KindTransport:
		return "The request could not be completed."
	default:
		return ""
	}
}
