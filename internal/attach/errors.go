// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import "errors"

// Local validation failures. They are shown as warnings and never reach
// the network layer.
var (
	// ErrAlreadyAttached is returned for a duplicate file path or image name.
	ErrAlreadyAttached = errors.New("already attached")

	// ErrLimitExceeded is returned when the image limit is reached.
	ErrLimitExceeded = errors.New("image limit reached")

	// ErrTooLarge is returned by the loaders for files over the size limit.
	ErrTooLarge = errors.New("file too large")

	// ErrUnsupportedImage is returned for image types the API cannot accept.
	ErrUnsupportedImage = errors.New("unsupported image type")
)
