// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"errors"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/protocol"
)

// ErrNotRunning is returned by dialogs before the panel is attached.
var ErrNotRunning = errors.New("panel is not running")

// =============================================================================
// MESSAGES
// =============================================================================

// outboundMsg carries a protocol command into the event loop.
type outboundMsg struct {
	cmd protocol.Outbound
}

// pickResult answers a file dialog.
type pickResult struct {
	paths []string
	err   error
}

// openPickerMsg asks the panel to show the file picker.
type openPickerMsg struct {
	title   string
	filters []host.FileFilter
	reply   chan<- pickResult
}

// secretResult answers a secret prompt.
type secretResult struct {
	value string
	err   error
}

// promptSecretMsg asks the panel to show the masked input.
type promptSecretMsg struct {
	prompt string
	reply  chan<- secretResult
}

// noticeMsg shows a transient notification.
type noticeMsg struct {
	level host.Level
	text  string
}

// dispatchErrMsg reports a command the dispatcher rejected.
type dispatchErrMsg struct {
	err error
}

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge is the host.Host and protocol.Emitter of a running panel.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
	focus   func() (host.Document, bool)

	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ host.Host        = (*Bridge)(nil)
	_ protocol.Emitter = (*Bridge)(nil)
)

// NewBridge creates a bridge. focus reports the focused document and may
// be nil when no focus source is available.
func NewBridge(focus func() (host.Document, bool)) *Bridge {
	return &Bridge{focus: focus, done: make(chan struct{})}
}

// Attach binds the bridge to a program. Call it before Program.Run.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

// Close releases dialogs still waiting for an answer. Call it after
// Program.Run returns.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bridge) send(msg tea.Msg) bool {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

// Emit delivers an outbound command to the panel.
func (b *Bridge) Emit(cmd protocol.Outbound) {
	b.send(outboundMsg{cmd: cmd})
}

// FocusedDocument implements host.Host.
func (b *Bridge) FocusedDocument() (host.Document, bool) {
	if b.focus == nil {
		return host.Document{}, false
	}
	return b.focus()
}

// SelectFiles implements host.Host with the panel's file picker.
func (b *Bridge) SelectFiles(filters []host.FileFilter) ([]string, error) {
	return b.pick("Attach file", filters)
}

// SelectImages implements host.Host with the panel's file picker.
func (b *Bridge) SelectImages() ([]string, error) {
	return b.pick("Attach image", host.ImageFilters)
}

func (b *Bridge) pick(title string, filters []host.FileFilter) ([]string, error) {
	reply := make(chan pickResult, 1)
	if !b.send(openPickerMsg{title: title, filters: filters, reply: reply}) {
		return nil, ErrNotRunning
	}
	select {
	case r := <-reply:
		return r.paths, r.err
	case <-b.done:
		return nil, ErrNotRunning
	}
}

// ReadFile implements host.Host.
func (b *Bridge) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// PromptSecret implements host.Host with a masked input.
func (b *Bridge) PromptSecret(prompt string) (string, error) {
	reply := make(chan secretResult, 1)
	if !b.send(promptSecretMsg{prompt: prompt, reply: reply}) {
		return "", ErrNotRunning
	}
	select {
	case r := <-reply:
		return r.value, r.err
	case <-b.done:
		return "", ErrNotRunning
	}
}

// Notify implements host.Host.
func (b *Bridge) Notify(level host.Level, msg string) {
	b.send(noticeMsg{level: level, text: msg})
}
