// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - Lists the models the configured key can use.

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/rigrun-assist/internal/model"
)

// RunModels probes the credential and prints the usable models. The
// default model is marked with '*'.
func RunModels(ctx context.Context, env *Env, args Args) error {
	cfg := withModel(env.Config, args.Model)
	client := env.NewClient(cfg)

	if !args.Quiet {
		fmt.Fprintln(env.Stderr, DimStyle.Render("Checking which models your key can use..."))
	}
	usable := client.ProbeCapability(ctx)

	fmt.Fprintln(env.Stdout, TitleStyle.Render("Models"))
	for _, d := range usable {
		mark := " "
		if d.ID == client.Model() {
			mark = "*"
		}
		fmt.Fprintf(env.Stdout, "%s %s %s %s\n", mark, LabelStyle.Width(22).Render(d.DisplayName), ValueStyle.Render(d.ID), DimStyle.Render(d.Tier.String()))
	}

	if cfg.Credential == "" {
		fmt.Fprintln(env.Stdout, WarningStyle.Render("No API key is set; only free-tier models are listed. Run 'rigrun-assist key'."))
	} else if len(usable) < len(model.Catalog()) {
		fmt.Fprintln(env.Stdout, DimStyle.Render("Only free-tier models are available with this key."))
	}
	if !model.Contains(usable, client.Model()) {
		fmt.Fprintf(env.Stdout, "%s the default model %s is not available with this key\n", WarningStyle.Render("[WARN]"), client.Model())
	}
	return nil
}
