// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"strings"
)

// Routes is a route table. Patterns use http.ServeMux syntax without a
// method or host: "/items/{id}", "/docs/{path...}", "/{$}" for the root
// only and "/" as a catch-all. Precedence follows ServeMux: the most
// specific pattern wins.
type Routes struct {
	mux      *http.ServeMux
	patterns []string
}

// Match is the pattern a pathname matched and its wildcard values.
type Match struct {
	Pattern string
	Params  map[string]string
}

type matchKey struct{}

// NewRoutes builds a route table. Like http.ServeMux it panics on invalid
// or conflicting patterns.
func NewRoutes(patterns ...string) *Routes {
	rs := &Routes{mux: http.NewServeMux()}
	for _, p := range patterns {
		rs.Handle(p)
	}
	return rs
}

// Handle adds a pattern to the table.
func (rs *Routes) Handle(pattern string) {
	names := wildcards(pattern)
	rs.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		m, ok := r.Context().Value(matchKey{}).(*Match)
		if !ok {
			return
		}
		m.Pattern = pattern
		for _, name := range names {
			m.Params[name] = r.PathValue(name)
		}
	})
	rs.patterns = append(rs.patterns, pattern)
}

// Patterns returns the registered patterns in registration order.
func (rs *Routes) Patterns() []string {
	return append([]string(nil), rs.patterns...)
}

// Match finds the route for an escaped pathname. Paths ServeMux would
// redirect (unclean paths, missing trailing slash) do not match.
func (rs *Routes) Match(pathname string) (Match, bool) {
	m := &Match{Params: map[string]string{}}

	ctx := context.WithValue(context.Background(), matchKey{}, m)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathname, nil)
	if err != nil || !strings.HasPrefix(req.URL.Path, "/") {
		return Match{Params: map[string]string{}}, false
	}

	rs.mux.ServeHTTP(discard{}, req)
	if m.Pattern == "" {
		return Match{Params: map[string]string{}}, false
	}
	return *m, true
}

// wildcards returns the wildcard names of a pattern, in order.
func wildcards(pattern string) []string {
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.Trim(seg, "{}"), "...")
		if name == "$" || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// discard is the ResponseWriter handed to the mux; matching writes nothing
// worth keeping.
type discard struct{}

func (discard) Header() http.Header         { return http.Header{} }
func (discard) Write(b []byte) (int, error) { return len(b), nil }
func (discard) WriteHeader(int)             {}
