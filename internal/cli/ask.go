// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask [question]
//
// Examples:
//   rigrun-assist ask "What does this function return?" --file util.go
//   rigrun-assist ask "What is wrong with this layout?" --image screen.png
//   rigrun-assist ask -m claude-3-5-haiku-20241022 "Summarize" -f a.go -f b.go

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/rigrun-assist/internal/session"
	"github.com/jeranaias/rigrun-assist/internal/util"
)

// RunAsk sends one question with the given attachments and prints the reply.
func RunAsk(ctx context.Context, env *Env, args Args) error {
	cfg := withModel(env.Config, args.Model)

	sess := session.New(cfg.MaxImages)
	defer sess.Close()

	if err := attachPaths(sess.Store(), fileReader{}, args.Files, args.Images, cfg.MaxFileSize); err != nil {
		return err
	}

	client := env.NewClient(cfg)
	orch := session.NewOrchestrator(client, sess, cfg.Prompts)

	if !args.Quiet {
		printRequestLine(env, client.Model(), sess)
	}

	reply, err := orch.Submit(ctx, args.Query, args.Model)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, strings.TrimRight(env.Render(reply), "\n"))
	return nil
}

// printRequestLine shows the model and attachments on stderr so piped
// stdout holds only the reply.
func printRequestLine(env *Env, modelID string, sess *session.Session) {
	snap := sess.Store().Snapshot()
	var parts []string
	for _, f := range snap.Files {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Name, util.HumanBytes(int64(f.Size))))
	}
	for _, img := range snap.Images {
		parts = append(parts, img.Name)
	}
	line := DimStyle.Render("Model: ") + ValueStyle.Render(modelID)
	if len(parts) > 0 {
		line += DimStyle.Render("  Attached: ") + ValueStyle.Render(strings.Join(parts, ", "))
	}
	fmt.Fprintln(env.Stderr, line)
}
