// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/itemboard/store"
)

// WithLogging wraps a store with request logging
func WithLogging(next store.Store) store.Store {
	return &loggingStore{next: next}
}

type loggingStore struct {
	next store.Store
}

func (l *loggingStore) Select(ctx context.Context, q store.Select) store.Response {
	return logged("select", q.Table, func() store.Response { return l.next.Select(ctx, q) })
}

func (l *loggingStore) Insert(ctx context.Context, table string, rows []store.Values) store.Response {
	return logged("insert", table, func() store.Response { return l.next.Insert(ctx, table, rows) })
}

func (l *loggingStore) Update(ctx context.Context, table string, values store.Values, filters []store.Filter) store.Response {
	return logged("update", table, func() store.Response { return l.next.Update(ctx, table, values, filters) })
}

func (l *loggingStore) Delete(ctx context.Context, table string, filters []store.Filter) store.Response {
	return logged("delete", table, func() store.Response { return l.next.Delete(ctx, table, filters) })
}

func logged(op, table string, call func() store.Response) store.Response {
	start := time.Now()

	// Log request
	slog.Debug("store request started",
		"op", op,
		"table", table,
	)

	resp := call()

	// Log completion
	duration := time.Since(start)
	if resp.Error != nil {
		slog.Warn("store request failed",
			"op", op,
			"table", table,
			"status", resp.Status,
			"code", resp.Error.Code,
			"error", resp.Error.Message,
			"duration_ms", duration.Milliseconds(),
		)
		return resp
	}
	slog.Info("store request completed",
		"op", op,
		"table", table,
		"status", resp.Status,
		"duration_ms", duration.Milliseconds(),
	)
	return resp
}

// LogTransport wraps an HTTP transport with request logging. A nil next
// uses http.DefaultTransport.
func LogTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()

		slog.Debug("http request started",
			"method", r.Method,
			"path", r.URL.Path,
		)

		resp, err := next.RoundTrip(r)

		duration := time.Since(start)
		if err != nil {
			slog.Warn("http request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
				"duration_ms", duration.Milliseconds(),
			)
			return nil, err
		}
		slog.Debug("http request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		)
		return resp, nil
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
