// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

type columnKind int

const (
	kindText columnKind = iota
	kindBool
	kindTime
)

// relation expands a child table into a parent row: child.ChildColumn = parent.ParentColumn.
type relation struct {
	ChildColumn  string
	ParentColumn string
	One          bool // embed a single object instead of an array
}

type table struct {
	Columns   map[string]columnKind
	Relations map[string]relation
}

// catalog lists every table and column the SQL backend accepts.
// Identifiers are interpolated into SQL, so anything outside it is rejected.
var catalog = map[string]table{
	"users": {
		Columns: map[string]columnKind{
			"id":        kindText,
			"email":     kindText,
			"name":      kindText,
			"createdAt": kindTime,
		},
		Relations: map[string]relation{
			"customers": {ChildColumn: "id", ParentColumn: "id", One: true},
			"items":     {ChildColumn: "owner", ParentColumn: "id"},
		},
	},
	"customers": {
		Columns: map[string]columnKind{
			"id":                       kindText,
			"stripeCustomerId":         kindText,
			"stripeSubscriptionId":     kindText,
			"stripePriceId":            kindText,
			"stripeSubscriptionStatus": kindText,
		},
	},
	"items": {
		Columns: map[string]columnKind{
			"id":        kindText,
			"owner":     kindText,
			"name":      kindText,
			"featured":  kindBool,
			"createdAt": kindTime,
		},
	},
}

// CreateSchema creates all tables needed by the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Column names are camelCase and quoted so PostgreSQL keeps their case.
const schema = `
-- Users
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT,
    name TEXT,
    "createdAt" TIMESTAMP NOT NULL
);

-- Billing customers (one per user)
CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    "stripeCustomerId" TEXT,
    "stripeSubscriptionId" TEXT,
    "stripePriceId" TEXT,
    "stripeSubscriptionStatus" TEXT
);

-- Items
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL DEFAULT '',
    featured BOOLEAN NOT NULL DEFAULT FALSE,
    "createdAt" TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner);
CREATE INDEX IF NOT EXISTS idx_items_created_at ON items("createdAt");
`
