// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable means no clipboard utility was found.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// ErrClipboardEmpty means the clipboard held no text.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// ReadClipboard returns the clipboard text.
func ReadClipboard() (string, error) {
	if clipboard.Unsupported {
		return "", ErrClipboardUnavailable
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrClipboardEmpty
	}
	return text, nil
}
