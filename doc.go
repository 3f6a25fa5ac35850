// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for Itemboard.

Itemboard keeps a list of items per user. It reads and writes records through
a cache-coherent data client and moves between pages through a router that
publishes one route state per location. The pages render as text and are
driven by commands typed on stdin.

# Starting

With a local SQLite database:

	go run . -d itemboard.db

With PostgreSQL:

	go run . -t postgres -d "postgres://..."

With a hosted PostgREST backend:

	BACKEND_URL=https://xyz.supabase.co BACKEND_KEY=... go run .

# Configuration

Settings come from flags, then the environment, then the .env file:

  - DATABASE_URL (-d): database connection string
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - BACKEND_URL (-backend-url): hosted backend, replaces the database
  - BACKEND_KEY (-backend-key): API key, required with a backend URL
  - AUTH_SECRET (-auth-secret): secret for local user ids
  - SESSION_TTL (-session-ttl): lifetime of local sessions (default 24h)
  - START_PATH (-start): initial location (default /)
  - LOG_LEVEL (-log-level): debug, info, warn or error

# Architecture

  - query: query keys and the shared cache
  - store: backing record store (SQL and REST)
  - db: cache-coherent data client (users, items)
  - router: history, route table and route state
  - auth: session and merged user
  - pages: page renderers
  - app: route table and command loop
  - middleware: store and HTTP logging
  - models: record types
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
