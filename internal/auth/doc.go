// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth supplies the bearer token attached to every backend request.
//
// Identity is delegated: the token is acquired by an external sign-in flow
// and handed to aina through the environment, a token file or the config.
// This package only finds it, keeps it fresh and refuses tokens whose exp
// claim is already in the past. Signature verification is the server's job.
//
// # Key Types
//
//   - TokenSource: Anything that can produce a token
//   - EnvToken, StaticToken: Fixed sources
//   - FileToken: Token file, reloaded when it changes on disk
//   - Chain: First source that yields a usable token wins
//
// # Usage
//
//	file := auth.NewFileToken(path, logger)
//	if err := file.Watch(ctx); err != nil {
//	    logger.Warn("token file not watched", zap.Error(err))
//	}
//	defer file.Close()
//	tokens := auth.Chain{auth.EnvToken(""), file}
package auth
