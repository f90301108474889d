// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// termhost.go - host.Host and protocol.Emitter for line-mode sessions.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/model"
	"github.com/jeranaias/rigrun-assist/internal/protocol"
)

// LineReader reads one line of input after showing prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
}

// TerminalHost serves dialogs by prompting on the terminal. Paths queued
// with Queue answer the next dialog without prompting.
type TerminalHost struct {
	in  LineReader
	out io.Writer

	mu     sync.Mutex
	queued []string
	focus  host.Document
	models []model.Descriptor
	render func(string) string
}

var (
	_ host.Host        = (*TerminalHost)(nil)
	_ protocol.Emitter = (*TerminalHost)(nil)
)

// NewTerminalHost creates a host reading from in and writing to out.
func NewTerminalHost(in LineReader, out io.Writer, render func(string) string) *TerminalHost {
	if render == nil {
		render = func(s string) string { return s }
	}
	return &TerminalHost{in: in, out: out, render: render}
}

// Queue sets the answer of the next file or image dialog.
func (h *TerminalHost) Queue(paths ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queued = append(h.queued[:0], paths...)
}

// SetFocus sets the document reported as focused.
func (h *TerminalHost) SetFocus(doc host.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focus = doc
}

// Models returns the models from the last UpdateModels.
func (h *TerminalHost) Models() []model.Descriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.models
}

// FocusedDocument implements host.Host.
func (h *TerminalHost) FocusedDocument() (host.Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focus, !h.focus.IsZero()
}

// SelectFiles implements host.Host.
func (h *TerminalHost) SelectFiles(filters []host.FileFilter) ([]string, error) {
	return h.selectPaths("File to attach: ", filters)
}

// SelectImages implements host.Host.
func (h *TerminalHost) SelectImages() ([]string, error) {
	return h.selectPaths("Image to attach: ", host.ImageFilters)
}

func (h *TerminalHost) selectPaths(prompt string, filters []host.FileFilter) ([]string, error) {
	h.mu.Lock()
	paths := h.queued
	h.queued = nil
	h.mu.Unlock()

	if len(paths) == 0 {
		line, err := h.in.Prompt(prompt)
		if err != nil {
			return nil, host.ErrCanceled
		}
		paths = strings.Fields(line)
	}
	if len(paths) == 0 {
		return nil, host.ErrCanceled
	}

	var accepted []string
	for _, p := range paths {
		if !matchesAny(filters, p) {
			h.Notify(host.LevelWarn, fmt.Sprintf("%s is not an accepted file type.", p))
			continue
		}
		accepted = append(accepted, expandHome(p))
	}
	if len(accepted) == 0 {
		return nil, host.ErrCanceled
	}
	return accepted, nil
}

func matchesAny(filters []host.FileFilter, path string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f.Matches(path) {
			return true
		}
	}
	return false
}

// ReadFile implements host.Host.
func (h *TerminalHost) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// PromptSecret implements host.Host.
func (h *TerminalHost) PromptSecret(prompt string) (string, error) {
	v, err := h.in.PasswordPrompt(prompt + ": ")
	if err != nil {
		return "", host.ErrCanceled
	}
	return v, nil
}

// Notify implements host.Host.
func (h *TerminalHost) Notify(level host.Level, msg string) {
	style := DimStyle
	switch level {
	case host.LevelWarn:
		style = WarningStyle
	case host.LevelError:
		style = ErrorStyle
	}
	fmt.Fprintln(h.out, style.Render(msg))
}

// =============================================================================
// EMITTER
// =============================================================================

// Emit implements protocol.Emitter by printing each command.
func (h *TerminalHost) Emit(cmd protocol.Outbound) {
	if err := protocol.DispatchOutbound(cmd, (*termOutput)(h)); err != nil {
		fmt.Fprintln(h.out, ErrorStyle.Render(err.Error()))
	}
}

// termOutput prints outbound commands.
type termOutput TerminalHost

func (o *termOutput) HandleReceiveMessage(cmd protocol.ReceiveMessage) {
	fmt.Fprintf(o.out, "%s\n%s\n", DimStyle.Render("["+cmd.Model+"]"), strings.TrimRight(o.render(cmd.Text), "\n"))
}

func (o *termOutput) HandleReceiveError(cmd protocol.ReceiveError) {
	if cmd.Warning {
		fmt.Fprintln(o.out, WarningStyle.Render(cmd.Text))
		return
	}
	fmt.Fprintln(o.out, ErrorStyle.Render(cmd.Text))
}

func (o *termOutput) HandleUpdateAttachments(cmd protocol.UpdateAttachments) {
	fmt.Fprintln(o.out, DimStyle.Render("Attached: ")+ValueStyle.Render(attachmentSummary(cmd)))
}

func (o *termOutput) HandleUpdateModels(cmd protocol.UpdateModels) {
	o.mu.Lock()
	o.models = cmd.Models
	o.mu.Unlock()
}

// attachmentSummary lists chip names, auto-attached files marked with '@'.
func attachmentSummary(cmd protocol.UpdateAttachments) string {
	var names []string
	for _, f := range cmd.Files {
		if f.Auto {
			names = append(names, "@"+f.Name)
		} else {
			names = append(names, f.Name)
		}
	}
	for _, img := range cmd.Images {
		names = append(names, img.Name)
	}
	if len(names) == 0 {
		return "nothing"
	}
	return strings.Join(names, ", ")
}
