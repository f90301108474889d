// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-assist/internal/ui/styles"
	"github.com/jeranaias/rigrun-assist/internal/util"
)

const (
	headerHeight   = 1
	chipBarHeight  = 1
	modelBarHeight = 1
	statusHeight   = 1
	inputHeight    = 5

	maxChipWidth = 28
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	body := height - headerHeight - chipBarHeight - modelBarHeight - statusHeight - inputHeight
	if body < 3 {
		body = 3
	}
	m.viewport.Width = width
	m.viewport.Height = body
	m.input.SetWidth(max(width-4, 10))
	m.secret.Width = max(width-10, 10)

	m.renderer = newRenderer(m.theme, width, m.opts.WordWrap)
	for i := range m.entries {
		m.entries[i].rendered = ""
	}
	m.ready = true
	m.refresh()
}

// newRenderer builds the markdown renderer for assistant replies.
func newRenderer(theme *styles.Theme, width, wrap int) *glamour.TermRenderer {
	if wrap <= 0 || wrap > width-4 {
		wrap = max(width-4, 20)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.Printf("panel: markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

// push appends an entry and scrolls to it.
func (m *Model) push(e entry) {
	if e.at.IsZero() {
		e.at = time.Now()
	}
	m.entries = append(m.entries, e)
	m.refresh()
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	var b strings.Builder
	for i := range m.entries {
		if m.entries[i].rendered == "" {
			m.entries[i].rendered = m.renderEntry(m.entries[i])
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.entries[i].rendered)
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderEntry(e entry) string {
	ts := m.theme.Timestamp.Render(e.at.Format("15:04"))
	switch e.kind {
	case entryUser:
		return fmt.Sprintf("%s %s\n%s\n", m.theme.UserLabel.Render("You"), ts, m.theme.UserText.Render(e.text))
	case entryAssistant:
		label := "Claude"
		if e.model != "" {
			label += " (" + e.model + ")"
		}
		return fmt.Sprintf("%s %s\n%s", m.theme.AssistantLabel.Render(label), ts, m.markdown(e.text))
	case entryError:
		return m.theme.ErrorText.Render(e.text) + "\n"
	case entryWarning:
		return m.theme.WarningText.Render(e.text) + "\n"
	default:
		return m.theme.Timestamp.Render(e.text) + "\n"
	}
}

func (m *Model) markdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}

	switch m.mode {
	case modePicker:
		return m.dialogView(m.pickerTitle, m.picker.View(), "Enter select | Esc cancel")
	case modeSecret:
		return m.dialogView(m.secretTitle, m.secret.View(), "Enter save | Esc cancel")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.chipsView(),
		m.modelsView(),
		m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View()),
		m.statusView(),
	)
}

func (m Model) headerView() string {
	brand := m.theme.HeaderBrand.Render("rigrun assist")
	meta := ""
	if m.pending > 0 {
		meta = m.spinner.View() + " thinking"
	}
	return m.theme.Header.Width(m.width).Render(brand + " " + m.theme.HeaderMeta.Render(meta))
}

func (m Model) chipsView() string {
	if len(m.attachments.Files) == 0 && len(m.attachments.Images) == 0 {
		return m.theme.ChipBar.Render(m.theme.Timestamp.Render("No attachments"))
	}

	var chips []string
	for _, f := range m.attachments.Files {
		label := util.TruncateWidth(f.Name, maxChipWidth)
		if f.Auto {
			chips = append(chips, m.theme.ChipAuto.Render("@ "+label))
			continue
		}
		chips = append(chips, m.theme.Chip.Render(label))
	}
	for _, img := range m.attachments.Images {
		label := util.TruncateWidth(img.Name, maxChipWidth)
		chips = append(chips, m.theme.ChipImage.Render("# "+label))
	}
	return m.theme.ChipBar.MaxWidth(max(m.width, 20)).Render(strings.Join(chips, " "))
}

func (m Model) modelsView() string {
	parts := make([]string, 0, len(m.models))
	for i, d := range m.models {
		name := d.DisplayName
		switch {
		case i == m.selected:
			parts = append(parts, m.theme.ModelSelected.Render(name))
		case d.IsFree():
			parts = append(parts, m.theme.ModelFree.Render(name))
		default:
			parts = append(parts, m.theme.ModelIdle.Render(name))
		}
	}
	line := strings.Join(parts, " ")
	if m.notice != "" {
		line += "  " + m.theme.Timestamp.Render(m.notice)
	}
	return lipgloss.NewStyle().MaxWidth(max(m.width, 20)).Render(line)
}

func (m Model) statusView() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Width(m.width).MaxWidth(max(m.width, 20)).Render(strings.Join(parts, "  "))
}

func (m Model) dialogView(title, body, hint string) string {
	box := m.theme.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.DialogTitle.Render(title),
		body,
		m.theme.Timestamp.Render(hint),
	))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
