// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - DatabaseURL: SQLite file or PostgreSQL connection string
  - DatabaseType: sqlite (default) or postgres
  - BackendURL: hosted REST backend; when set, the database is not used
  - BackendKey: API key for the hosted backend (required with BackendURL)
  - StartPath: first location to open (default: /)
  - LogLevel: debug, info, warn or error (default: info)
  - EnvFile: env file loaded before reading the environment (default: .env)

# CLI Flags

	-d            Database URL
	-t            Database type
	--backend-url Hosted backend URL
	--backend-key Hosted backend API key
	--start       Initial location
	--log-level   Log level
	--env         Env file

# Environment Variables

Flags fall back to environment variables:

	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	BACKEND_URL   → --backend-url
	BACKEND_KEY   → --backend-key
	START_PATH    → --start
	LOG_LEVEL     → --log-level

CLI flags take precedence over environment variables, and variables already
set take precedence over the env file. A missing env file is not an error.

# Validation

ParseFlags returns an error if:

  - BACKEND_URL is set without BACKEND_KEY
  - no backend is set and DATABASE_URL is missing
  - DATABASE_TYPE is neither sqlite nor postgres
*/
package cliparse
