// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/model"
	"github.com/jeranaias/rigrun-assist/internal/protocol"
	"github.com/jeranaias/rigrun-assist/internal/session"
	"github.com/jeranaias/rigrun-assist/internal/ui/styles"
)

// mode is what currently owns the keyboard.
type mode int

const (
	modeChat mode = iota
	modePicker
	modeSecret
)

// entryKind selects how a transcript entry renders.
type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryError
	entryWarning
	entryNotice
)

// entry is one rendered line group of the transcript.
type entry struct {
	kind     entryKind
	text     string
	model    string
	at       time.Time
	rendered string
}

// Options configures a panel.
type Options struct {
	// Session is closed when the panel quits.
	Session *session.Session

	// Dispatch handles inbound commands. It runs off the event loop.
	Dispatch func(protocol.Inbound) error

	// OnStart runs once, off the event loop, when the panel starts.
	OnStart func()

	// Theme defaults to styles.NewTheme("auto").
	Theme *styles.Theme

	// ModelID is the initially selected model.
	ModelID string

	// WordWrap caps the markdown render width. Zero uses the window width.
	WordWrap int
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat panel.
type Model struct {
	opts  Options
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	picker   filepicker.Model
	secret   textinput.Model

	renderer *glamour.TermRenderer

	mode        mode
	pickerTitle string
	pickReply   chan<- pickResult
	secretTitle string
	secretReply chan<- secretResult

	entries     []entry
	attachments protocol.UpdateAttachments
	models      []model.Descriptor
	selected    int
	pending     int
	notice      string
	quitting    bool
}

var _ protocol.OutboundHandler = (*Model)(nil)

// New creates a panel model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about your code... (Alt+Enter for a new line)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	secret := textinput.New()
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '*'
	secret.Prompt = "> "

	m := Model{
		opts:     opts,
		theme:    theme,
		keys:     DefaultKeyMap(),
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		picker:   filepicker.New(),
		secret:   secret,
		models:   model.FreeTier(model.Catalog()),
	}
	m.selectModel(opts.ModelID)
	m.renderer = newRenderer(theme, 80, opts.WordWrap)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if m.opts.OnStart != nil {
		start := m.opts.OnStart
		cmds = append(cmds, func() tea.Msg {
			start()
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case outboundMsg:
		if err := protocol.DispatchOutbound(msg.cmd, &m); err != nil {
			log.Printf("panel: %v", err)
		}
		m.refresh()
		return m, nil

	case openPickerMsg:
		return m.openPicker(msg)

	case promptSecretMsg:
		return m.openSecret(msg)

	case noticeMsg:
		m.notice = msg.text
		m.push(entry{kind: entryNotice, text: msg.text})
		return m, nil

	case dispatchErrMsg:
		m.push(entry{kind: entryError, text: msg.err.Error()})
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Everything else (picker directory reads, cursor blinks) goes to
	// whichever component is active.
	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modePicker:
		m.picker, cmd = m.picker.Update(msg)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.closePicker(pickResult{paths: []string{path}})
		} else if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
			m.notice = "Not an accepted type: " + path
		}
	case modeSecret:
		m.secret, cmd = m.secret.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modePicker:
		if msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC {
			m.closePicker(pickResult{err: host.ErrCanceled})
			return m, nil
		}
		return m.forward(msg)

	case modeSecret:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.closeSecret(secretResult{err: host.ErrCanceled})
			return m, nil
		case tea.KeyEnter:
			m.closeSecret(secretResult{value: m.secret.Value()})
			return m, nil
		}
		return m.forward(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.AttachFile):
		return m, m.dispatch(protocol.AttachFile{})

	case key.Matches(msg, m.keys.AttachImage):
		return m, m.dispatch(protocol.AttachImage{})

	case key.Matches(msg, m.keys.RefreshModels):
		m.notice = "Checking which models your key can use..."
		return m, m.dispatch(protocol.RefreshModels{})

	case key.Matches(msg, m.keys.ChangeKey):
		return m, m.dispatch(protocol.OpenAPIKeyChanger{})

	case key.Matches(msg, m.keys.RemoveLast):
		if cmd := m.removeLast(); cmd != nil {
			return m, m.dispatch(cmd)
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleModel):
		if len(m.models) > 0 {
			m.selected = (m.selected + 1) % len(m.models)
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.forward(msg)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" && len(m.attachments.Files) == 0 && len(m.attachments.Images) == 0 {
		return m, nil
	}
	m.input.Reset()
	m.pending++

	label := text
	if names := m.chipNames(); len(names) > 0 {
		label += "\n[" + strings.Join(names, ", ") + "]"
	}
	m.push(entry{kind: entryUser, text: label, model: m.SelectedModel()})
	return m, m.dispatch(protocol.SendMessage{Text: text, Model: m.SelectedModel()})
}

// removeLast picks the command removing the most recent chip.
func (m Model) removeLast() protocol.Inbound {
	if n := len(m.attachments.Images); n > 0 {
		return protocol.RemoveImage{Name: m.attachments.Images[n-1].Name}
	}
	if n := len(m.attachments.Files); n > 0 {
		return protocol.RemoveFile{Path: m.attachments.Files[n-1].Path}
	}
	return nil
}

// dispatch runs cmd on a goroutine so host dialogs can block.
func (m Model) dispatch(cmd protocol.Inbound) tea.Cmd {
	handle := m.opts.Dispatch
	if handle == nil {
		return nil
	}
	return func() tea.Msg {
		if err := handle(cmd); err != nil {
			return dispatchErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.pickReply != nil {
		m.closePicker(pickResult{err: host.ErrCanceled})
	}
	if m.secretReply != nil {
		m.closeSecret(secretResult{err: host.ErrCanceled})
	}
	if m.opts.Session != nil {
		m.opts.Session.Close()
	}
	return m, tea.Quit
}

// =============================================================================
// DIALOGS
// =============================================================================

func (m Model) openPicker(msg openPickerMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeChat {
		msg.reply <- pickResult{err: host.ErrCanceled}
		return m, nil
	}

	fp := filepicker.New()
	fp.AllowedTypes = host.AllowedExtensions(msg.filters)
	fp.CurrentDirectory = startDirectory()
	fp.Height = max(m.height-8, 5)

	m.picker = fp
	m.pickerTitle = msg.title
	m.pickReply = msg.reply
	m.mode = modePicker
	m.input.Blur()
	return m, m.picker.Init()
}

func (m *Model) closePicker(r pickResult) {
	if m.pickReply != nil {
		m.pickReply <- r
		m.pickReply = nil
	}
	m.mode = modeChat
	m.input.Focus()
}

func (m Model) openSecret(msg promptSecretMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeChat {
		msg.reply <- secretResult{err: host.ErrCanceled}
		return m, nil
	}
	m.secret.Reset()
	m.secretTitle = msg.prompt
	m.secretReply = msg.reply
	m.mode = modeSecret
	m.input.Blur()
	return m, m.secret.Focus()
}

func (m *Model) closeSecret(r secretResult) {
	if m.secretReply != nil {
		m.secretReply <- r
		m.secretReply = nil
	}
	m.secret.Reset()
	m.secret.Blur()
	m.mode = modeChat
	m.input.Focus()
}

// startDirectory is the picker's first directory.
func startDirectory() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// =============================================================================
// OUTBOUND HANDLERS
// =============================================================================

// HandleReceiveMessage appends an assistant reply.
func (m *Model) HandleReceiveMessage(cmd protocol.ReceiveMessage) {
	m.settle()
	m.push(entry{kind: entryAssistant, text: cmd.Text, model: cmd.Model})
}

// HandleReceiveError appends an error or warning.
func (m *Model) HandleReceiveError(cmd protocol.ReceiveError) {
	if cmd.Warning {
		m.push(entry{kind: entryWarning, text: cmd.Text})
		return
	}
	m.settle()
	m.push(entry{kind: entryError, text: cmd.Text})
}

// HandleUpdateAttachments replaces the chip bar.
func (m *Model) HandleUpdateAttachments(cmd protocol.UpdateAttachments) {
	m.attachments = cmd
}

// HandleUpdateModels replaces the model selector, keeping the current
// choice when it is still usable.
func (m *Model) HandleUpdateModels(cmd protocol.UpdateModels) {
	current := m.SelectedModel()
	m.models = cmd.Models
	m.selected = 0
	if model.Contains(m.models, current) {
		m.selectModel(current)
	} else {
		m.selectModel(cmd.Selected)
	}
	m.notice = ""
}

// settle marks one in-flight request as answered.
func (m *Model) settle() {
	if m.pending > 0 {
		m.pending--
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SelectedModel returns the ID of the selected model, or "".
func (m Model) SelectedModel() string {
	if m.selected < 0 || m.selected >= len(m.models) {
		return ""
	}
	return m.models[m.selected].ID
}

// Pending returns the number of unanswered sends.
func (m Model) Pending() int {
	return m.pending
}

func (m *Model) selectModel(id string) {
	for i, d := range m.models {
		if d.ID == id {
			m.selected = i
			return
		}
	}
}

func (m Model) chipNames() []string {
	var names []string
	for _, f := range m.attachments.Files {
		names = append(names, f.Name)
	}
	for _, img := range m.attachments.Images {
		names = append(names, img.Name)
	}
	return names
}
