// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles holds the lipgloss palette and theme of the chat panel.

Colors are lipgloss AdaptiveColor values, so one palette serves light and
dark terminals. NewTheme resolves the background once, honoring the
ui.theme setting ("auto", "dark" or "light"), and the panel hands the
result to glamour so markdown replies match the surrounding chrome.

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render("rigrun-assist")
	chip := theme.Chip.Render("main.go")
*/
package styles
