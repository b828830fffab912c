// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// rigrun-shell.
//
// # Key Types
//
//   - Config: file configuration (approval, commands, log, ui sections)
//   - Store: runtime holder of the authoritative approval mode
//   - ValidateErrors: every problem found by Validate
//
// Edit changes one key of a config file and writes it back atomically.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGRUN_*)
//   - ~/.rigrun/config.toml
//   - ~/.rigrun/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	store := config.NewStore(cfg)
//	ctrl := approval.NewController(store)
package config
