// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for aina.
//
// Supports both TOML and JSON (with comments) configuration formats, with
// defaults, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend URL, rate limit and response cap
//   - AuthConfig: Where the bearer token comes from
//   - UIConfig: Terminal UI preferences
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (AINA_*)
//   - ~/.aina/config.toml
//   - ~/.aina/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(cfg.Server.URL, tokens, api.WithRateLimit(cfg.Server.RequestsPerSecond, cfg.Server.Burst))
package config
