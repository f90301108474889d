// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// rigrun-assist.
//
// # Key Types
//
//   - Config: The complete configuration, including the credential
//   - UIConfig: Panel theme and word wrap
//   - ValidationError, ValidateErrors: Field-level validation failures
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ANTHROPIC_API_KEY, RIGRUN_ASSIST_*)
//   - ~/.rigrun-assist/config.toml
//   - Built-in defaults
//
// Prompt templates under [prompts] are merged over the built-in ones.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Set("max_images", "5")
//	err = config.Save(cfg)
package config
