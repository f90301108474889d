// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the Anthropic Messages API client.
//
// The client sends one request per call, never retries, and maps every
// failure onto a small error taxonomy the chat panel can display.
//
// # Key Types
//
//   - Client: Messages API client with hot-reloadable settings
//   - TransportError: Catch-all failure carrying the underlying message
//   - ErrorKind: Display category for any error returned by the client
//
// # Usage
//
// Create a client and send a single turn:
//
//	client := cloud.NewClient(cfg)
//	text, err := client.Send(ctx, []model.Turn{
//	    model.NewUserTurn(model.TextBlock("Hello")),
//	}, "")
//
// Find out which models the credential can use:
//
//	usable := client.ProbeCapability(ctx)
//
// # Security
//
// The credential is never logged; KeyFingerprint returns a short SHA-256
// prefix for status display.
package cloud
