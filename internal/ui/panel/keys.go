// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the panel's key bindings.
type KeyMap struct {
	Send          key.Binding
	AttachFile    key.Binding
	AttachImage   key.Binding
	RefreshModels key.Binding
	ChangeKey     key.Binding
	RemoveLast    key.Binding
	CycleModel    key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		AttachFile: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "attach file"),
		),
		AttachImage: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "attach image"),
		),
		RefreshModels: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh models"),
		),
		ChangeKey: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "API key"),
		),
		RemoveLast: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "remove last"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "model"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("Esc", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.AttachFile, k.AttachImage, k.RemoveLast, k.CycleModel, k.RefreshModels, k.ChangeKey, k.Quit}
}
