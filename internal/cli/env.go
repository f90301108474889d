// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Process environment shared by the command handlers.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/cloud"
	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/session"
)

// Env is what command handlers read from and write to. Tests replace the
// streams, the client factory and the persistence hooks.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Config is the effective configuration, environment overrides included.
	Config *config.Config

	// NewClient creates the API client.
	NewClient func(*config.Config) session.APIClient

	// LoadFileConfig returns the configuration as stored on disk, without
	// environment overrides. Commands that save start from it.
	LoadFileConfig func() (*config.Config, error)

	// SaveConfig persists a configuration.
	SaveConfig func(*config.Config) error

	// ReadSecret reads a secret without echo.
	ReadSecret func(prompt string) (string, error)

	// ReadClipboard returns the clipboard text.
	ReadClipboard func() (string, error)

	// Render formats a reply for output.
	Render func(string) string
}

// DefaultEnv returns the environment of a real process.
func DefaultEnv(cfg *config.Config) *Env {
	return &Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: cfg,
		NewClient: func(c *config.Config) session.APIClient {
			return cloud.NewClient(c)
		},
		LoadFileConfig: loadFileConfig,
		SaveConfig:     config.Save,
		ReadSecret:     ReadSecret,
		ReadClipboard:  host.ReadClipboard,
		Render:         renderMarkdown,
	}
}

// loadFileConfig reads config.toml without applying environment overrides,
// so a key exported in the shell is never written to disk.
func loadFileConfig() (*config.Config, error) {
	cfg := config.Default()
	path, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := config.LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

// withModel returns cfg with the default model replaced when id is set.
func withModel(cfg *config.Config, id string) *config.Config {
	if id == "" {
		return cfg
	}
	c := cfg.Clone()
	c.ModelID = id
	return c
}

// =============================================================================
// FILES
// =============================================================================

// fileReader reads attachments from the local filesystem.
type fileReader struct{}

func (fileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(expandHome(path))
}

// attachPaths loads files and images into store. The first failure stops
// the command: a one-shot request should not silently drop an attachment.
func attachPaths(store *attach.Store, r attach.Reader, files, images []string, maxFileSize int64) error {
	for _, path := range files {
		f, err := attach.LoadFile(r, path, maxFileSize)
		if err != nil {
			return NewCommandError("attach", "file", err)
		}
		if err := store.AttachFile(f.OriginPath, f.Content, f.Language); err != nil {
			return NewCommandError("attach", "file", fmt.Errorf("%s: %w", f.Name, err))
		}
	}
	for _, path := range images {
		img, err := attach.LoadImage(r, path)
		if err != nil {
			return NewCommandError("attach", "image", err)
		}
		if err := store.AttachImage(img.Name, img.Data, img.MIMEType); err != nil {
			return NewCommandError("attach", "image", fmt.Errorf("%s: %w", img.Name, err))
		}
	}
	return nil
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || (path[1] != '/' && path[1] != '\\') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
