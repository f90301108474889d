// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach tracks the files and images attached to a chat session.
//
// A Store holds at most one file per origin path and at most one image per
// name, and never more than its image limit. One file slot is reserved for
// auto-attach: it follows the focused document and is replaced whenever
// focus moves.
//
// Snapshot returns identifiers only and is what the panel renders.
// Contents returns full copies and is what a submission sends.
package attach
