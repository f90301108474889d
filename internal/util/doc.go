// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the assistant packages:
// crash-safe file writes, display-width truncation for attachment chips,
// and human-readable byte sizes.
package util
