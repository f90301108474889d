// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration inspection and editing.
//
// Command: config [show|get|set|path]
//
// Examples:
//   rigrun-assist config show
//   rigrun-assist config get max_images
//   rigrun-assist config set auto_attach_file false
//   rigrun-assist config set prompts.review "Review this {{.Language}}: {{.Code}}"

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/rigrun-assist/internal/config"
)

const promptKeyPrefix = "prompts."

// RunConfig handles the config subcommands.
func RunConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "show":
		fmt.Fprintln(env.Stdout, env.Config.String())
		return nil

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return NewCommandError("config", "path", err)
		}
		fmt.Fprintln(env.Stdout, path)
		return nil

	case "get":
		return configGet(env, args.ConfigKey)

	case "set":
		return configSet(env, args.ConfigKey, args.ConfigVal)

	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand, "expected show, get, set or path", "rigrun-assist config get model_id")
	}
}

func configGet(env *Env, key string) error {
	if key == "" {
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(env.Stdout, k)
		}
		for _, p := range env.Config.Purposes() {
			fmt.Fprintln(env.Stdout, promptKeyPrefix+p)
		}
		return nil
	}

	if purpose, ok := strings.CutPrefix(key, promptKeyPrefix); ok {
		tmpl, found := env.Config.Prompts[purpose]
		if !found {
			return NewValidationError("key", key, "no such prompt")
		}
		fmt.Fprintln(env.Stdout, tmpl)
		return nil
	}

	val, err := env.Config.Get(key)
	if err != nil {
		return NewValidationError("key", key, err.Error())
	}
	if key == "credential" {
		val = redact(fmt.Sprint(val))
	}
	fmt.Fprintln(env.Stdout, val)
	return nil
}

func configSet(env *Env, key, value string) error {
	if key == "" {
		return NewValidationErrorWithExample("key", "", "missing key", "rigrun-assist config set max_images 5")
	}

	cfg, err := env.LoadFileConfig()
	if err != nil {
		return NewCommandError("config", "load", err)
	}

	if purpose, ok := strings.CutPrefix(key, promptKeyPrefix); ok {
		purpose = strings.ToLower(strings.TrimSpace(purpose))
		if purpose == "" {
			return NewValidationError("key", key, "missing purpose name")
		}
		if cfg.Prompts == nil {
			cfg.Prompts = config.DefaultPrompts()
		}
		cfg.Prompts[purpose] = value
	} else if err := cfg.Set(key, value); err != nil {
		return NewValidationError("key", key, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := env.SaveConfig(cfg); err != nil {
		return NewCommandError("config", "save", err)
	}

	shown := value
	if key == "credential" {
		shown = redact(value)
	}
	fmt.Fprintf(env.Stdout, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, shown)
	return nil
}

// redact hides a secret entirely.
func redact(s string) string {
	if s == "" {
		return "[not set]"
	}
	return "[REDACTED]"
}
