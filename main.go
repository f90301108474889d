// rigrun-assist - Claude chat beside your editor.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/rigrun-assist/internal/cli"
	"github.com/jeranaias/rigrun-assist/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg, cfgErr := config.Load()
	if cfg == nil {
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
	}
	config.SetGlobal(cfg)

	args, err := cli.ParseArgs(argv, cfg.Purposes())
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitUsageError
	}

	// A broken config file must not lock the user out of fixing it.
	if cfgErr != nil && args.Cmd != cli.CmdConfig && args.Cmd != cli.CmdHelp && args.Cmd != cli.CmdVersion {
		cli.DisplayError(os.Stderr, cfgErr)
		return cli.ExitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := cli.DefaultEnv(cfg)

	switch args.Cmd {
	case cli.CmdChat:
		err = cli.RunChat(env, args)
	case cli.CmdAsk:
		err = cli.RunAsk(ctx, env, args)
	case cli.CmdPrompt:
		err = cli.RunPrompt(ctx, env, args)
	case cli.CmdREPL:
		err = cli.RunREPL(env, args)
	case cli.CmdModels:
		err = cli.RunModels(ctx, env, args)
	case cli.CmdConfig:
		err = cli.RunConfig(env, args)
	case cli.CmdKey:
		err = cli.RunKey(ctx, env, args)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	default:
		err = fmt.Errorf("unhandled command %d", args.Cmd)
	}

	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitCodeFor(err)
	}
	return cli.ExitSuccess
}
