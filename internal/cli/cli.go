// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command selection and usage text for rigrun-assist.

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/jeranaias/rigrun-assist/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdPrompt // explain, optimize, comment, debug and any configured purpose
	CmdREPL
	CmdModels
	CmdConfig
	CmdKey
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	Cmd Command

	// Global flags
	Model string
	Quiet bool

	// chat
	Watch string
	Theme string

	// ask, repl
	Query  string
	Files  []string
	Images []string

	// explain, optimize, comment, debug
	Purpose   string
	Target    string
	Lines     LineRange
	Clipboard bool
	Show      bool

	// config
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args after the command name
	Raw []string
}

// boolFlags never consume the argument after them.
var boolFlags = []string{"clipboard", "c", "quiet", "q", "show", "help", "h", "version", "v"}

const usageText = `rigrun-assist - Claude chat for your editor

Usage:
  rigrun-assist                       Open the chat panel (default)
  rigrun-assist chat [--watch DIR]    Open the chat panel, following edits under DIR
  rigrun-assist ask "question"        Ask a single question
  rigrun-assist explain [FILE]        Explain a selection
  rigrun-assist optimize [FILE]       Suggest optimizations for a selection
  rigrun-assist comment [FILE]        Add comments to a selection
  rigrun-assist debug [FILE]          Look for bugs in a selection
  rigrun-assist repl                  Line-mode chat
  rigrun-assist models                List the models your key can use
  rigrun-assist config [show|get|set|path]
  rigrun-assist key                   Set the API key
  rigrun-assist version

Flags:
  -m, --model ID        Model to use (overrides config)
  -f, --file PATH       Attach a file (repeatable; ask, repl)
  -i, --image PATH      Attach an image (repeatable; ask, repl)
  --lines A:B           Select lines A through B of FILE
  -c, --clipboard       Read the selection from the clipboard
  --show                Print the highlighted selection before the reply
  --watch DIR           Auto-attach the most recently saved file under DIR
  --theme auto|dark|light
  -q, --quiet           Suppress status output

Selections are read from FILE, --clipboard or standard input, in that order.

Configuration: ~/.rigrun-assist/config.toml
Environment:   ANTHROPIC_API_KEY, RIGRUN_ASSIST_MODEL, RIGRUN_ASSIST_MAX_TOKENS,
               RIGRUN_ASSIST_BASE_URL, RIGRUN_ASSIST_DEBUG
`

// ParseArgs selects the command and parses its flags. prompts lists the
// configured prompt purposes; any of them is accepted as a command name.
func ParseArgs(argv []string, prompts []string) (Args, error) {
	p := NewArgParser(argv, boolFlags...)
	args := Args{
		Model: p.FirstFlag("model", "m"),
		Quiet: p.BoolFlag("quiet", "q"),
	}

	if p.BoolFlag("help", "h") {
		args.Cmd = CmdHelp
		return args, nil
	}
	if p.BoolFlag("version", "v") && p.PositionalCount() == 0 {
		args.Cmd = CmdVersion
		return args, nil
	}

	name := strings.ToLower(p.Subcommand())
	args.Raw = p.PositionalFrom(1)

	switch name {
	case "", "chat":
		args.Cmd = CmdChat
		args.Watch = p.Flag("watch")
		args.Theme = p.Flag("theme")

	case "ask", "a":
		args.Cmd = CmdAsk
		args.Query = JoinPositionalArgs(p, 1)
		args.Files = p.FlagValues("file", "f")
		args.Images = p.FlagValues("image", "i")
		if args.Query == "" && len(args.Files) == 0 && len(args.Images) == 0 {
			return args, NewValidationErrorWithExample("question", "", "nothing to ask", `rigrun-assist ask "what does this do?" --file main.go`)
		}

	case "repl":
		args.Cmd = CmdREPL
		args.Files = p.FlagValues("file", "f")
		args.Images = p.FlagValues("image", "i")

	case "models":
		args.Cmd = CmdModels

	case "config":
		args.Cmd = CmdConfig
		args.Subcommand = strings.ToLower(p.Positional(1))
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
		args.ConfigKey = p.Positional(2)
		args.ConfigVal = strings.Join(p.PositionalFrom(3), " ")

	case "key":
		args.Cmd = CmdKey

	case "version":
		args.Cmd = CmdVersion

	case "help":
		args.Cmd = CmdHelp

	default:
		if !containsFold(prompts, name) {
			return args, fmt.Errorf("unknown command: %s (run 'rigrun-assist help')", name)
		}
		args.Cmd = CmdPrompt
		args.Purpose = name
		args.Target = p.Positional(1)
		args.Clipboard = p.BoolFlag("clipboard", "c")
		args.Show = p.BoolFlag("show")
		lines, err := ParseLineRange(p.Flag("lines"))
		if err != nil {
			return args, err
		}
		args.Lines = lines
		if args.Target != "" && args.Clipboard {
			return args, NewValidationError("selection", args.Target, "use either FILE or --clipboard, not both")
		}
	}

	return args, nil
}

// JoinPositionalArgs joins positional arguments from startIndex on.
func JoinPositionalArgs(p *ArgParser, startIndex int) string {
	return strings.Join(p.PositionalFrom(startIndex), " ")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "rigrun-assist %s\n", Version)
	fmt.Fprintf(w, "  Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// DefaultPurposes returns the built-in prompt purposes, used when the
// configuration cannot be read.
func DefaultPurposes() []string {
	return []string{config.PurposeComment, config.PurposeDebug, config.PurposeExplain, config.PurposeOptimize}
}
