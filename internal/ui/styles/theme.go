// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles of the chat panel.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMeta  lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	ErrorText      lipgloss.Style
	WarningText    lipgloss.Style
	Timestamp      lipgloss.Style

	// Attachment chips
	ChipBar   lipgloss.Style
	Chip      lipgloss.Style
	ChipAuto  lipgloss.Style
	ChipImage lipgloss.Style

	// Model selector
	ModelSelected lipgloss.Style
	ModelIdle     lipgloss.Style
	ModelFree     lipgloss.Style

	// Input and status
	InputContainer lipgloss.Style
	Spinner        lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// Dialogs
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style
}

// NewTheme creates the panel theme. mode is "dark", "light" or "auto";
// auto asks the terminal.
func NewTheme(mode string) *Theme {
	var isDark bool
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)

	t.WarningText = lipgloss.NewStyle().
		Foreground(Amber).
		PaddingLeft(2)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ChipBar = lipgloss.NewStyle().
		Padding(0, 1)

	t.Chip = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		Padding(0, 1).
		MarginRight(1)

	t.ChipAuto = t.Chip.
		Foreground(Emerald)

	t.ChipImage = t.Chip.
		Foreground(Purple)

	t.ModelSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.ModelIdle = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ModelFree = lipgloss.NewStyle().
		Foreground(Emerald)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Dialog = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.DialogTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)
}
