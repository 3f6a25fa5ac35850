// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptyTarget = errors.New("empty target")
	ErrCrossOrigin = errors.New("target leaves the application")
)

// Location is one history entry. Pathname is kept percent-encoded; Search
// and Hash include their leading "?" and "#" when present.
type Location struct {
	Pathname string
	Search   string
	Hash     string
	State    any
	Key      string
}

// String returns the location as a relative URL.
func (l Location) String() string {
	return l.Pathname + l.Search + l.Hash
}

// NavigationError reports a navigation target that cannot be turned into a
// location. The route state is left untouched when it is returned.
type NavigationError struct {
	Target string
	Err    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("router: invalid target %q: %v", e.Target, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// Resolve resolves target against base the way a browser resolves a link:
// "/a" is absolute, "b" and "../b" are relative to base's path, "?q=1"
// keeps the path and "#top" keeps path and query. Targets with a scheme or
// host, and targets with invalid escapes, are rejected. Surrounding spaces
// are ignored.
func Resolve(base Location, target string) (Location, error) {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return Location{}, &NavigationError{Target: target, Err: ErrEmptyTarget}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return Location{}, &NavigationError{Target: target, Err: err}
	}
	if ref.Scheme != "" || ref.Host != "" || ref.Opaque != "" || ref.User != nil {
		return Location{}, &NavigationError{Target: target, Err: ErrCrossOrigin}
	}
	// Only the escapes are checked; separators such as ";" are left alone.
	if _, err := url.QueryUnescape(ref.RawQuery); err != nil {
		return Location{}, &NavigationError{Target: target, Err: err}
	}

	from, err := url.Parse(base.Pathname + base.Search)
	if err != nil || from.Path == "" {
		from = &url.URL{Path: "/"}
	}
	u := from.ResolveReference(ref)

	loc := Location{Pathname: u.EscapedPath()}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if u.RawQuery != "" {
		loc.Search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		loc.Hash = "#" + u.EscapedFragment()
	}
	return loc, nil
}
