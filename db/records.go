// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/danielhkuo/itemboard/models"
	"github.com/danielhkuo/itemboard/query"
	"github.com/danielhkuo/itemboard/store"
)

// records implements the operations shared by every collection.
type records[T any] struct {
	store   store.Store
	queries *query.Client
	table   string   // collection key and table name, e.g. "items"
	single  string   // by-id key name, e.g. "item"
	embed   []string // relations expanded on by-id reads
}

// Key returns the query key of a single record.
func (r *records[T]) Key(id string) query.Key {
	return query.NewKey(r.single, map[string]any{"id": id})
}

// CollectionKey returns the bare key matching every list query of the collection.
func (r *records[T]) CollectionKey() query.Key {
	return query.NewKey(r.table, nil)
}

func (r *records[T]) byID(id string) query.Query[T] {
	return query.Query[T]{
		Key:     r.Key(id),
		Enabled: id != "",
		Fn: func(ctx context.Context) (T, error) {
			return r.Lookup(ctx, id)
		},
	}
}

// Get returns the record with the given id from the cache, fetching it when
// needed. An empty id yields a disabled result and no request.
func (r *records[T]) Get(ctx context.Context, id string) query.Result[T] {
	return query.Fetch(ctx, r.queries, r.byID(id))
}

// Watch calls fn with the record now and after every write that touches it.
func (r *records[T]) Watch(ctx context.Context, id string, fn func(query.Result[T])) (stop func()) {
	return query.Watch(ctx, r.queries, r.byID(id), fn)
}

// Lookup fetches the record straight from the store, bypassing the cache.
func (r *records[T]) Lookup(ctx context.Context, id string) (T, error) {
	var out T
	resp := r.store.Select(ctx, store.Select{
		Table:   r.table,
		Embed:   r.embed,
		Filters: []store.Filter{store.Eq("id", id)},
		Single:  true,
	})
	err := handle("get "+r.single, resp, &out)
	return out, err
}

// Create inserts one record and returns it with server-assigned fields.
// All list queries of the collection are invalidated.
func (r *records[T]) Create(ctx context.Context, data any) (T, error) {
	var zero T
	op := "create " + r.single

	values, err := toValues(op, data)
	if err != nil {
		return zero, err
	}

	var rows []T
	resp := r.store.Insert(ctx, r.table, []store.Values{values})
	if err := handle(op, resp, &rows); err != nil {
		return zero, err
	}

	// Invalidate and refetch queries that could have old data
	r.queries.Invalidate(ctx, r.CollectionKey())

	if len(rows) == 0 {
		return zero, &StoreError{Op: op, Kind: ErrTransient, Err: &store.Error{
			Code:    store.CodeDecode,
			Message: "insert returned no rows",
		}}
	}

	slog.Info("record created", "table", r.table)
	return rows[0], nil
}

// Update applies a partial update. The record's own query and all list
// queries of the collection are invalidated.
func (r *records[T]) Update(ctx context.Context, id string, data any) (T, error) {
	var zero T
	op := "update " + r.single

	values, err := toValues(op, data)
	if err != nil {
		return zero, err
	}

	var rows []T
	resp := r.store.Update(ctx, r.table, values, []store.Filter{store.Eq("id", id)})
	if err := handle(op, resp, &rows); err != nil {
		return zero, err
	}

	// Invalidate and refetch queries that could have old data
	r.queries.Invalidate(ctx, r.Key(id), r.CollectionKey())

	if len(rows) == 0 {
		return zero, &StoreError{Op: op, Kind: ErrNotFound}
	}

	slog.Info("record updated", "table", r.table, "id", id)
	return rows[0], nil
}

// Delete removes the record. Deleting a missing record is not an error;
// the acknowledgment then reports zero deleted rows.
func (r *records[T]) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	op := "delete " + r.single

	var rows []json.RawMessage
	resp := r.store.Delete(ctx, r.table, []store.Filter{store.Eq("id", id)})
	if err := handle(op, resp, &rows); err != nil {
		return models.DeleteResult{}, err
	}

	// Invalidate and refetch queries that could have old data
	r.queries.Invalidate(ctx, r.Key(id), r.CollectionKey())

	slog.Info("record deleted", "table", r.table, "id", id, "deleted", len(rows))
	return models.DeleteResult{ID: id, Deleted: len(rows)}, nil
}

// handle returns the decoded response data or the error carried by the response.
func handle(op string, resp store.Response, out any) error {
	if resp.Error != nil {
		return &StoreError{Op: op, Kind: classify(resp.Error), Err: resp.Error}
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &StoreError{Op: op, Kind: ErrTransient, Err: &store.Error{
			Code:    store.CodeDecode,
			Message: err.Error(),
			Status:  resp.Status,
		}}
	}
	return nil
}

// toValues accepts store.Values, a plain map or any JSON-encodable struct.
func toValues(op string, data any) (store.Values, error) {
	switch v := data.(type) {
	case store.Values:
		return v, nil
	case map[string]any:
		return store.Values(v), nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, &StoreError{Op: op, Kind: ErrTransient, Err: &store.Error{Code: store.CodeDecode, Message: err.Error()}}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var values store.Values
	if err := dec.Decode(&values); err != nil {
		return nil, &StoreError{Op: op, Kind: ErrTransient, Err: &store.Error{
			Code:    store.CodeDecode,
			Message: "record data must encode to a JSON object",
		}}
	}
	return values, nil
}
