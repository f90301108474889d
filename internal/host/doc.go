// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package host is the boundary between the assistant and its environment.
//
// The assistant never talks to the editor, the file system dialogs or the
// clipboard directly. It goes through the Host interface, which the chat
// panel and the CLI each implement. The package also supplies the pieces
// both implementations share:
//
//   - Document, the focused-document value that feeds auto-attach
//   - FocusWatcher, an fsnotify watcher that reports the most recently
//     saved source file as the focused document
//   - LanguageFor, chroma-based language tags for fenced code blocks
//   - ReadClipboard, for selections taken from the system clipboard
package host
