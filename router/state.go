// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/url"
	"strings"
)

// Params holds multi-valued string parameters.
type Params map[string][]string

// Get returns the first value for key, or "".
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// All returns every value for key.
func (p Params) All(key string) []string {
	return p[key]
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// State is the route state of one location. It is derived from scratch on
// every location change and never carries values over from an earlier one.
// The router hands out copies, so changing one does not affect the router.
type State struct {
	Pattern    string // "" when no route matched
	PathParams map[string]string
	Query      Params
	Params     Params // Query with PathParams laid over it
	Pathname   string
	Location   Location
	History    History
}

// Matched reports whether a route matched the location.
func (s State) Matched() bool {
	return s.Pattern != ""
}

// Derive computes the route state of loc.
func Derive(loc Location, routes *Routes, h History) State {
	s := State{
		PathParams: map[string]string{},
		Query:      parseQuery(loc.Search),
		Params:     Params{},
		Pathname:   loc.Pathname,
		Location:   loc,
		History:    h,
	}

	if routes != nil {
		if m, ok := routes.Match(loc.Pathname); ok {
			s.Pattern = m.Pattern
			s.PathParams = m.Params
		}
	}

	for k, vs := range s.Query {
		s.Params[k] = append([]string(nil), vs...)
	}
	for k, v := range s.PathParams {
		s.Params[k] = []string{v}
	}
	return s
}

// parseQuery splits on "&" only, so ";" stays part of a value. Pairs that
// cannot be decoded are dropped.
func parseQuery(search string) Params {
	raw := strings.ReplaceAll(strings.TrimPrefix(search, "?"), ";", "%3B")
	values, _ := url.ParseQuery(raw)
	return Params(values)
}

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, vs := range p {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// clone returns a copy that shares no maps or slices with s.
func (s State) clone() State {
	out := s
	out.PathParams = make(map[string]string, len(s.PathParams))
	for k, v := range s.PathParams {
		out.PathParams[k] = v
	}
	out.Query = s.Query.clone()
	out.Params = s.Params.clone()
	return out
}
