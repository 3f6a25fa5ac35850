// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestREST_SelectBuildsQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","customers":null}`))
	}))
	defer srv.Close()

	s := NewREST(srv.URL+"/", "anon-key", WithAccessToken(func() string { return "user-jwt" }))
	resp := s.Select(context.Background(), Select{
		Table:   "users",
		Embed:   []string{"customers"},
		Filters: []Filter{Eq("id", "u1")},
		Single:  true,
	})

	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"id":"u1","customers":null}`, string(resp.Data))

	require.NotNil(t, got)
	assert.Equal(t, "/rest/v1/users", got.URL.Path)
	assert.Equal(t, "*,customers(*)", got.URL.Query().Get("select"))
	assert.Equal(t, "eq.u1", got.URL.Query().Get("id"))
	assert.Equal(t, "anon-key", got.Header.Get("apikey"))
	assert.Equal(t, "Bearer user-jwt", got.Header.Get("Authorization"))
	assert.Equal(t, mediaObject, got.Header.Get("Accept"))
}

func TestREST_OrderAndAnonymousToken(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewREST(srv.URL, "anon-key", WithAccessToken(func() string { return "" }))
	resp := s.Select(context.Background(), Select{
		Table:   "items",
		Filters: []Filter{Eq("owner", "u1")},
		Order:   &Order{Column: "createdAt"},
	})

	require.Nil(t, resp.Error)
	assert.Equal(t, "createdAt.desc", got.URL.Query().Get("order"))
	assert.Equal(t, "Bearer anon-key", got.Header.Get("Authorization"))
	assert.Equal(t, mediaJSON, got.Header.Get("Accept"))
}

func TestREST_WritesRequestRepresentation(t *testing.T) {
	tests := []struct {
		name   string
		call   func(s *REST) Response
		method string
		query  string
		body   string
	}{
		{
			name:   "insert",
			call:   func(s *REST) Response { return s.Insert(context.Background(), "items", []Values{{"name": "a"}}) },
			method: http.MethodPost,
			body:   `[{"name":"a"}]`,
		},
		{
			name: "update",
			call: func(s *REST) Response {
				return s.Update(context.Background(), "items", Values{"name": "b"}, []Filter{Eq("id", "i1")})
			},
			method: http.MethodPatch,
			query:  "id=eq.i1",
			body:   `{"name":"b"}`,
		},
		{
			name:   "delete",
			call:   func(s *REST) Response { return s.Delete(context.Background(), "items", []Filter{Eq("id", "i1")}) },
			method: http.MethodDelete,
			query:  "id=eq.i1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got  *http.Request
				body []byte
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r
				body, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`[{"id":"i1"}]`))
			}))
			defer srv.Close()

			resp := tt.call(NewREST(srv.URL, "k"))
			require.Nil(t, resp.Error)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.query, got.URL.RawQuery)
			assert.Equal(t, "return=representation", got.Header.Get("Prefer"))
			if tt.body != "" {
				assert.JSONEq(t, tt.body, string(body))
			}
		})
	}
}

func TestREST_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    CodeNoRows,
			"message": "JSON object requested, multiple (or no) rows returned",
			"details": "The result contains 0 rows",
		})
	}))
	defer srv.Close()

	resp := NewREST(srv.URL, "k").Select(context.Background(), Select{Table: "items", Single: true})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNoRows, resp.Error.Code)
	assert.Equal(t, http.StatusNotAcceptable, resp.Error.Status)
	assert.Equal(t, "The result contains 0 rows", resp.Error.Details)
}

func TestREST_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	resp := NewREST(srv.URL, "k").Select(context.Background(), Select{Table: "items"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "bad gateway", resp.Error.Message)
	assert.Equal(t, http.StatusBadGateway, resp.Status)
}

func TestREST_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	resp := NewREST(url, "k").Select(context.Background(), Select{Table: "items"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTransport, resp.Error.Code)
	assert.Equal(t, 0, resp.Status)
}
