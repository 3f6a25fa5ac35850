// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the backing record store: the external service that keeps
users and items durable and executes queries against them.

# Contract

Every operation returns a Response with either Data or Error:

	resp := s.Select(ctx, store.Select{
		Table:   "items",
		Filters: []store.Filter{store.Eq("owner", uid)},
		Order:   &store.Order{Column: "createdAt"},
	})
	if resp.Error != nil {
		// failure, whatever resp.Status says
	}

Select supports equality filters, ordering, single-row mode and one level of
relation expansion (Embed). Insert, Update and Delete return the affected rows.
Update and Delete refuse to run without filters.

A single-row Select that matches zero or several rows fails with CodeNoRows
(HTTP 406), the same way PostgREST does.

# Backends

REST talks to a hosted PostgREST/Supabase project:

	s := store.NewREST("https://abc.supabase.co", anonKey,
		store.WithAccessToken(session.Token))

SQL talks to PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite) directly and
fills in what the hosted backend would: a UUID id and a createdAt timestamp.

	s, err := store.OpenSQL(ctx, store.DriverSQLite, "file:app.db")

OpenSQL creates the schema if needed. Only tables and columns listed in the
internal catalog are accepted.

# Tables

	users     1──1 customers (customers.id = users.id)
	users     1──* items     (items.owner = users.id)

All foreign keys use ON DELETE CASCADE.
*/
package store
