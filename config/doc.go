/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads client settings from a YAML or TOML file, a .env file
// and the environment.
//
// Sources apply in this order, later ones winning:
//
//  1. Default()
//  2. the config file, chosen by extension (.yaml, .yml, .toml)
//  3. the .env file
//  4. process environment variables (RECORDGATE_*, then AWS_* fallbacks)
package config
