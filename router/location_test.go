// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	base := Location{Pathname: "/items/42", Search: "?sort=desc", Hash: "#top"}

	tests := []struct {
		target string
		want   string
	}{
		{"/about", "/about"},
		{"/items/7?sort=asc#notes", "/items/7?sort=asc#notes"},
		{"43", "/items/43"},
		{"../settings/profile", "/settings/profile"},
		{"?sort=asc", "/items/42?sort=asc"},
		{"#notes", "/items/42?sort=desc#notes"},
		{"/a%20b", "/a%20b"},
		{"/items/./42/../9", "/items/9"},
		{"/items/42?filter=a;b&sort=desc", "/items/42?filter=a;b&sort=desc"},
		{" /about\t", "/about"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			loc, err := Resolve(base, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}

func TestResolve_Rejects(t *testing.T) {
	tests := []struct {
		target string
		is     error
	}{
		{"%zz", nil},
		{"/items/%zz", nil},
		{"/items?q=%zz", nil},
		{"", ErrEmptyTarget},
		{"  ", ErrEmptyTarget},
		{"https://example.com/items", ErrCrossOrigin},
		{"//example.com/items", ErrCrossOrigin},
		{"mailto:someone@example.com", ErrCrossOrigin},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			_, err := Resolve(Location{Pathname: "/"}, tt.target)

			var navErr *NavigationError
			require.True(t, errors.As(err, &navErr), "got %v", err)
			assert.Equal(t, tt.target, navErr.Target)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{Pathname: "/items/42", Search: "?sort=desc", Hash: "#x"}
	assert.Equal(t, "/items/42?sort=desc#x", loc.String())
	assert.Equal(t, "/", Location{Pathname: "/"}.String())
}
