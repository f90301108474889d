// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Opens the chat panel.
//
// Command: chat [--watch DIR] [--theme auto|dark|light] [--model ID]
//
// With --watch, the most recently saved source file under DIR is treated as
// the focused document and auto-attached.

package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/session"
	"github.com/jeranaias/rigrun-assist/internal/ui/panel"
	"github.com/jeranaias/rigrun-assist/internal/ui/styles"
)

// debugEnv enables the debug log while the panel runs.
const debugEnv = "RIGRUN_ASSIST_DEBUG"

// RunChat runs the panel until the user quits.
func RunChat(env *Env, args Args) error {
	cfg := withModel(env.Config, args.Model)

	closeLog, err := redirectLog()
	if err != nil {
		return NewCommandError("chat", "open debug log", err)
	}
	defer closeLog()

	sess := session.New(cfg.MaxImages)
	defer sess.Close()

	var (
		ctl     *session.Controller
		watcher *host.FocusWatcher
		focus   func() (host.Document, bool)
	)
	if args.Watch != "" {
		root, err := filepath.Abs(expandHome(args.Watch))
		if err != nil {
			return NewValidationError("watch", args.Watch, err.Error())
		}
		watcher, err = host.NewFocusWatcher(root, host.WatchOptions{MaxFileSize: cfg.MaxFileSize}, func(doc host.Document) {
			ctl.FocusChanged(doc)
		})
		if err != nil {
			return NewCommandError("chat", "watch", err)
		}
		defer watcher.Close()
		focus = watcher.Current
	}

	bridge := panel.NewBridge(focus)
	defer bridge.Close()

	ctl = session.NewController(sess, env.NewClient(cfg), bridge, bridge, session.ControllerOptions{
		Config:     cfg,
		SaveConfig: env.SaveConfig,
	})

	// The watcher calls ctl, so it starts only once ctl is set.
	if watcher != nil {
		if err := watcher.Start(); err != nil {
			return NewCommandError("chat", "watch", err)
		}
	}

	theme := args.Theme
	if theme == "" {
		theme = cfg.UI.Theme
	}
	m := panel.New(panel.Options{
		Session:  sess,
		Dispatch: ctl.Handle,
		OnStart:  ctl.Start,
		Theme:    styles.NewTheme(theme),
		ModelID:  cfg.ModelID,
		WordWrap: cfg.UI.WordWrap,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	bridge.Attach(p)

	log.Printf("session %s: panel started", sess.ID())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	log.Printf("session %s: panel closed after %v", sess.ID(), sess.Duration())
	return nil
}

// redirectLog keeps log output off the panel: to debug.log when debugging
// is enabled, otherwise nowhere.
func redirectLog() (func(), error) {
	if os.Getenv(debugEnv) == "" {
		prev := log.Writer()
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(prev) }, nil
	}

	if err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "rigrun-assist")
	if err != nil {
		return nil, err
	}
	return func() { f.Close() }, nil
}
