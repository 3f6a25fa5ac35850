// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielhkuo/itemboard/store"
)

// Failure kinds. Test with errors.Is; the original payload is available
// through errors.As with *store.Error.
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrTransient    = errors.New("backing store failure")
)

// StoreError is returned by every data client operation that the backing
// store rejected.
type StoreError struct {
	Op   string // e.g. "update item"
	Kind error  // ErrNotFound, ErrUnauthorized or ErrTransient
	Err  *store.Error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("db: %s: %v", e.Op, e.Kind)
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func classify(e *store.Error) error {
	switch {
	case e.Code == store.CodeNoRows, e.Status == http.StatusNotFound && e.Code != store.CodeUnknownTable:
		return ErrNotFound
	case e.Code == store.CodeForbidden, e.Code == store.CodeJWTExpired,
		e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	}
	return ErrTransient
}
