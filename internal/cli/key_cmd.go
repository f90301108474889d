// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// key_cmd.go - Stores the Anthropic API key.

package cli

import (
	"context"
	"fmt"
	"strings"
)

// RunKey prompts for the credential, saves it and probes which models it
// unlocks. An empty answer leaves the stored key unchanged.
func RunKey(ctx context.Context, env *Env, args Args) error {
	key, err := env.ReadSecret("Anthropic API key: ")
	if err != nil {
		return NewCommandError("key", "read", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		fmt.Fprintln(env.Stderr, WarningStyle.Render("The API key was left unchanged."))
		return nil
	}

	cfg, err := env.LoadFileConfig()
	if err != nil {
		return NewCommandError("key", "load", err)
	}
	cfg.Credential = key
	if err := env.SaveConfig(cfg); err != nil {
		return NewCommandError("key", "save", err)
	}

	client := env.NewClient(cfg)
	usable := client.ProbeCapability(ctx)
	fmt.Fprintf(env.Stdout, "%s API key saved. %d models available.\n", SuccessStyle.Render("[OK]"), len(usable))
	return nil
}
