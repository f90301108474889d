// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt_cmd.go - Purpose commands: explain, optimize, comment, debug and
// any purpose added under [prompts] in the config file.
//
// Command: <purpose> [FILE] [--lines A:B] [--clipboard] [--show]
//
// Examples:
//   rigrun-assist explain handler.go --lines 40:72
//   rigrun-assist debug --clipboard
//   git diff | rigrun-assist comment

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/session"
)

// selection is the code a purpose command runs on.
type selection struct {
	code     string
	language string
	source   string
}

// RunPrompt renders the purpose's template over the selection and prints
// the reply.
func RunPrompt(ctx context.Context, env *Env, args Args) error {
	sel, err := readSelection(env, args)
	if err != nil {
		return err
	}

	cfg := withModel(env.Config, args.Model)
	sess := session.New(cfg.MaxImages)
	defer sess.Close()

	client := env.NewClient(cfg)
	orch := session.NewOrchestrator(client, sess, cfg.Prompts)

	if args.Show {
		showSelection(env.Stderr, sel)
	}
	if !args.Quiet {
		fmt.Fprintf(env.Stderr, "%s %s %s\n",
			DimStyle.Render(strings.ToUpper(args.Purpose[:1])+args.Purpose[1:]+":"),
			ValueStyle.Render(sel.source),
			DimStyle.Render("("+host.DisplayLanguage(sel.language)+", "+client.Model()+")"))
	}

	reply, err := orch.RunPromptTemplate(ctx, args.Purpose, sel.code, host.DisplayLanguage(sel.language), args.Model)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, strings.TrimRight(env.Render(reply), "\n"))
	return nil
}

// readSelection reads FILE, the clipboard or piped stdin, then applies the
// line range.
func readSelection(env *Env, args Args) (selection, error) {
	var sel selection

	switch {
	case args.Target != "":
		data, err := fileReader{}.ReadFile(args.Target)
		if err != nil {
			return sel, NewCommandError(args.Purpose, "read", err)
		}
		sel = selection{code: string(data), language: host.LanguageFor(args.Target), source: args.Target}

	case args.Clipboard:
		text, err := env.ReadClipboard()
		if err != nil {
			return sel, NewCommandError(args.Purpose, "read clipboard", err)
		}
		sel = selection{code: text, source: "clipboard"}

	default:
		if env.Stdin == nil || isTerminal(env.Stdin) {
			return sel, NewValidationErrorWithExample("selection", "", "give a FILE, --clipboard or pipe code on stdin",
				"rigrun-assist "+args.Purpose+" main.go --lines 10:30")
		}
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return sel, NewCommandError(args.Purpose, "read stdin", err)
		}
		sel = selection{code: string(data), source: "stdin"}
	}

	code, err := args.Lines.Apply(sel.code)
	if err != nil {
		return sel, NewValidationError("lines", fmt.Sprintf("%d:%d", args.Lines.Start, args.Lines.End), err.Error())
	}
	sel.code = code
	if !args.Lines.IsZero() {
		sel.source += fmt.Sprintf(":%d", args.Lines.Start)
		if args.Lines.End > args.Lines.Start {
			sel.source += fmt.Sprintf("-%d", args.Lines.End)
		}
	}
	if strings.TrimSpace(sel.code) == "" {
		return sel, session.ErrEmptySelection
	}
	if sel.language == "" {
		sel.language = host.LanguageForContent(sel.code)
	}
	return sel, nil
}

// showSelection prints the selection with syntax highlighting.
func showSelection(w io.Writer, sel selection) {
	lang := sel.language
	if lang == "" {
		lang = "text"
	}
	format := "terminal256"
	if !ColorsEnabled() {
		format = "noop"
	}
	if err := quick.Highlight(w, sel.code, lang, format, "monokai"); err != nil {
		fmt.Fprint(w, sel.code)
	}
	fmt.Fprintln(w)
}
