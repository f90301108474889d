// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties attachments, the API client and the chat panel
// together.
//
// A Session lives as long as one open panel. It owns one attachment store
// and one display transcript, and Close discards both.
//
// The Orchestrator turns user text plus the current attachments into a
// single user turn and sends it. Every request is a fresh one-turn
// conversation; the transcript is for display only.
//
// The Controller speaks the panel protocol. It handles inbound commands,
// drives host dialogs, and emits outbound commands. Sends and probes run
// on their own goroutines and report back through the emitter, so the
// panel stays responsive and several requests may be in flight at once.
//
// Usage:
//
//	sess := session.New(cfg.MaxImages)
//	ctl := session.NewController(sess, client, h, emitter, session.ControllerOptions{Config: cfg})
//	ctl.Start()
//	_ = ctl.Handle(protocol.SendMessage{Text: "explain this"})
package session
