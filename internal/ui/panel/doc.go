// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panel is the terminal chat panel.
//
// The panel is a Bubble Tea model. It turns key presses into inbound
// protocol commands and renders the outbound commands it receives. It
// never calls the API itself: a dispatch function (normally
// session.Controller.Handle) runs each command on a tea.Cmd goroutine.
//
// Bridge connects the other direction. It is the protocol.Emitter and the
// host.Host of a running panel: outbound commands, dialogs and
// notifications become tea messages delivered with Program.Send, and
// dialog answers travel back on per-request channels.
//
//	bridge := panel.NewBridge(watcher.Current)
//	ctl := session.NewController(sess, client, bridge, bridge, opts)
//	m := panel.New(panel.Options{Session: sess, Dispatch: ctl.Handle, OnStart: ctl.Start})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	bridge.Attach(p)
//	_, err := p.Run()
package panel
