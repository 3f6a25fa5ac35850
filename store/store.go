// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Error codes shared by every backend. The values follow PostgREST so the REST
// and SQL backends report the same conditions the same way.
const (
	CodeNoRows        = "PGRST116" // single-row select matched zero or many rows
	CodeUnknownColumn = "PGRST204"
	CodeUnknownTable  = "PGRST205"
	CodeJWTExpired    = "PGRST301"
	CodeForbidden     = "42501" // insufficient_privilege
	CodeUnique        = "23505"
	CodeForeignKey    = "23503"
	CodeTransport     = "transport"
	CodeDecode        = "decode"
)

// Store is the request/response interface of the backing record store.
// Every call returns a Response; a non-nil Response.Error is a failure
// regardless of Response.Status.
type Store interface {
	Select(ctx context.Context, q Select) Response
	Insert(ctx context.Context, table string, rows []Values) Response
	Update(ctx context.Context, table string, values Values, filters []Filter) Response
	Delete(ctx context.Context, table string, filters []Filter) Response
}

// Values maps column names to values for inserts and updates.
type Values map[string]any

// Filter is an equality filter: Column = Value.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

type Order struct {
	Column    string
	Ascending bool
}

// Select describes a read. Embed names related tables to expand one level
// deep, e.g. Embed: []string{"customers"} on users.
type Select struct {
	Table   string
	Embed   []string
	Filters []Filter
	Order   *Order
	Single  bool
}

// Response carries either Data (a JSON object in single mode, an array
// otherwise) or Error.
type Response struct {
	Data   json.RawMessage
	Error  *Error
	Status int
}

// Error is the error payload returned by the store.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store: %s: %s", e.Code, e.Message)
	}
	return "store: " + e.Message
}

func failure(status int, code, format string, args ...any) Response {
	return Response{
		Status: status,
		Error:  &Error{Code: code, Message: fmt.Sprintf(format, args...), Status: status},
	}
}
