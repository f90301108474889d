// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers of
// rigrun-assist.
//
// # Key Types
//
//   - Command: the available commands
//   - Args: parsed arguments
//   - Env: streams, configuration and hooks shared by the handlers
//   - TerminalHost: host.Host and protocol.Emitter for line-mode sessions
//
// # Usage
//
//	args, err := cli.ParseArgs(os.Args[1:], cfg.Purposes())
//	env := cli.DefaultEnv(cfg)
//	switch args.Cmd {
//	case cli.CmdAsk:
//	    err = cli.RunAsk(ctx, env, args)
//	case cli.CmdChat:
//	    err = cli.RunChat(env, args)
//	// ...
//	}
//
// Handlers return errors; main prints them with DisplayError and exits
// with ExitCodeFor.
package cli
