// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-mode chat for terminals where the panel cannot run.
//
// Command: repl [--file PATH]... [--image PATH]... [--model ID]

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/protocol"
	"github.com/jeranaias/rigrun-assist/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineEditor wraps liner with persistent history.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{line: line, historyFile: filepath.Join(dir, "repl_history")}
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

func (e *lineEditor) PasswordPrompt(prompt string) (string, error) {
	return e.line.PasswordPrompt(prompt)
}

// Close saves history with owner-only permissions and restores the terminal.
func (e *lineEditor) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// RunREPL runs the line-mode chat until /quit or end of input.
func RunREPL(env *Env, args Args) error {
	editor := newLineEditor()
	defer editor.Close()
	return runREPL(env, args, editor)
}

// replState is one line-mode chat.
type replState struct {
	env   *Env
	ctl   *session.Controller
	sess  *session.Session
	host  *TerminalHost
	model string
}

func runREPL(env *Env, args Args, in LineReader) error {
	cfg := withModel(env.Config, args.Model)

	sess := session.New(cfg.MaxImages)
	defer sess.Close()

	th := NewTerminalHost(in, env.Stdout, env.Render)
	client := env.NewClient(cfg)
	ctl := session.NewController(sess, client, th, th, session.ControllerOptions{
		Config:     cfg,
		SaveConfig: env.SaveConfig,
	})

	r := &replState{env: env, ctl: ctl, sess: sess, host: th, model: args.Model}
	if r.model == "" {
		r.model = client.Model()
	}

	fmt.Fprintln(env.Stdout, TitleStyle.Render("rigrun-assist repl"))
	fmt.Fprintln(env.Stdout, DimStyle.Render("Type /help for commands, /quit to leave."))

	ctl.Start()
	ctl.Wait()
	for _, p := range args.Files {
		r.attach(protocol.AttachFile{}, p)
	}
	for _, p := range args.Images {
		r.attach(protocol.AttachImage{}, p)
	}

	for {
		input, err := in.Prompt(PromptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(env.Stdout)
				return nil
			}
			return NewCommandError("repl", "read", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if !r.command(input) {
				return nil
			}
			continue
		}

		r.handle(protocol.SendMessage{Text: input, Model: r.model})
	}
}

// handle dispatches cmd and waits for its replies.
func (r *replState) handle(cmd protocol.Inbound) {
	if err := r.ctl.Handle(cmd); err != nil {
		DisplayError(r.env.Stdout, err)
	}
	r.ctl.Wait()
}

func (r *replState) attach(cmd protocol.Inbound, path string) {
	r.host.Queue(path)
	r.handle(cmd)
}

// command runs a slash command. It returns false to leave the repl.
func (r *replState) command(input string) bool {
	parts := strings.Fields(input)
	name, rest := strings.ToLower(parts[0]), parts[1:]

	switch name {
	case "/quit", "/q", "/exit":
		return false

	case "/help", "/h", "/?":
		r.help()

	case "/file", "/f":
		r.host.Queue(rest...)
		r.handle(protocol.AttachFile{})

	case "/image", "/i":
		r.host.Queue(rest...)
		r.handle(protocol.AttachImage{})

	case "/rm", "/remove":
		if len(rest) == 0 {
			fmt.Fprintln(r.env.Stdout, WarningStyle.Render("Usage: /rm NAME"))
			break
		}
		if cmd := r.removal(strings.Join(rest, " ")); cmd != nil {
			r.handle(cmd)
		} else {
			fmt.Fprintln(r.env.Stdout, WarningStyle.Render("Nothing attached by that name."))
		}

	case "/list", "/ls":
		snap := r.sess.Store().Snapshot()
		fmt.Fprintln(r.env.Stdout, DimStyle.Render("Attached: ")+ValueStyle.Render(attachmentSummary(protocol.AttachmentsFrom(snap))))

	case "/clear":
		r.sess.Store().Clear()
		r.sess.Transcript().Clear()
		fmt.Fprintln(r.env.Stdout, SuccessStyle.Render("[Attachments and history cleared]"))

	case "/models":
		r.handle(protocol.RefreshModels{})
		for _, d := range r.host.Models() {
			mark := " "
			if d.ID == r.model {
				mark = "*"
			}
			fmt.Fprintf(r.env.Stdout, "%s %s %s\n", mark, ValueStyle.Render(d.ID), DimStyle.Render(d.DisplayName))
		}

	case "/model", "/m":
		if len(rest) == 0 {
			fmt.Fprintf(r.env.Stdout, "%s %s\n", DimStyle.Render("Model:"), ValueStyle.Render(r.model))
			break
		}
		r.model = rest[0]
		fmt.Fprintf(r.env.Stdout, "%s Switched to %s\n", SuccessStyle.Render("[OK]"), r.model)

	case "/key":
		r.handle(protocol.OpenAPIKeyChanger{})

	default:
		fmt.Fprintln(r.env.Stdout, WarningStyle.Render("Unknown command: "+name+" (type /help)"))
	}
	return true
}

// removal finds the attachment named name, by chip name or path.
func (r *replState) removal(name string) protocol.Inbound {
	snap := r.sess.Store().Snapshot()
	for _, img := range snap.Images {
		if img.Name == name {
			return protocol.RemoveImage{Name: name}
		}
	}
	for _, f := range snap.Files {
		if f.Name == name || f.Path == name {
			return protocol.RemoveFile{Path: f.Path}
		}
	}
	return nil
}

func (r *replState) help() {
	rows := [][2]string{
		{"/file [PATH...]", "attach files"},
		{"/image [PATH...]", "attach images"},
		{"/rm NAME", "remove an attachment"},
		{"/list", "show attachments"},
		{"/clear", "drop attachments and history"},
		{"/models", "list usable models"},
		{"/model [ID]", "show or switch the model"},
		{"/key", "change the API key"},
		{"/quit", "leave"},
	}
	for _, row := range rows {
		fmt.Fprintf(r.env.Stdout, "  %s %s\n", LabelStyle.Render(row[0]), DimStyle.Render(row[1]))
	}
}
