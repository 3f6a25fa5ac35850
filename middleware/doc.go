// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides logging decorators for the backing store.

# Store Logging

Wrap any store with request logging:

	s := middleware.WithLogging(sqlStore)
	client := db.New(s, queries)

Logs request start (op, table) at debug level and completion (status,
duration_ms) at info level. Failed requests are logged at warn level with
the store error code and message.

# Transport Logging

The REST store's HTTP client can log each request as well:

	httpClient := &http.Client{Transport: middleware.LogTransport(nil)}
	s := store.NewREST(url, key, store.WithHTTPClient(httpClient))
*/
package middleware
