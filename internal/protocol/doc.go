// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the commands exchanged between the chat panel
// and the session.
//
// Each direction is a sealed interface: only the types in this package
// implement Inbound or Outbound. Dispatch goes through handler interfaces
// with one method per variant, so adding a variant breaks every handler
// that does not yet know about it at compile time.
//
// On the wire a command is a flat JSON object whose "command" field names
// the variant:
//
//	{"command":"sendMessage","text":"explain this","model":"claude-3-haiku-20240307"}
//	{"command":"updateAttachments","files":[{"name":"a.py","size":8}],"images":[]}
package protocol
