// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	mediaJSON   = "application/json"
	mediaObject = "application/vnd.pgrst.object+json"
)

// REST is a Store speaking the PostgREST dialect used by hosted Postgres
// backends such as Supabase.
type REST struct {
	baseURL string
	apiKey  string
	client  *http.Client
	token   func() string
}

type RESTOption func(*REST)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) { r.client = c }
}

// WithAccessToken sets the source of the signed-in user's bearer token.
// When it returns "", requests are made with the anonymous API key.
func WithAccessToken(fn func() string) RESTOption {
	return func(r *REST) { r.token = fn }
}

// NewREST creates a client for the project at baseURL, e.g.
// https://abc.supabase.co. Tables are served under /rest/v1/.
func NewREST(baseURL, apiKey string, opts ...RESTOption) *REST {
	r := &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *REST) Select(ctx context.Context, q Select) Response {
	params := url.Values{}
	columns := "*"
	for _, name := range q.Embed {
		columns += "," + name + "(*)"
	}
	params.Set("select", columns)
	addFilters(params, q.Filters)
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}

	accept := mediaJSON
	if q.Single {
		accept = mediaObject
	}
	return r.do(ctx, http.MethodGet, q.Table, params, nil, accept)
}

func (r *REST) Insert(ctx context.Context, table string, rows []Values) Response {
	if rows == nil {
		rows = []Values{}
	}
	return r.do(ctx, http.MethodPost, table, url.Values{}, rows, mediaJSON)
}

func (r *REST) Update(ctx context.Context, table string, values Values, filters []Filter) Response {
	params := url.Values{}
	addFilters(params, filters)
	return r.do(ctx, http.MethodPatch, table, params, values, mediaJSON)
}

func (r *REST) Delete(ctx context.Context, table string, filters []Filter) Response {
	params := url.Values{}
	addFilters(params, filters)
	return r.do(ctx, http.MethodDelete, table, params, nil, mediaJSON)
}

func (r *REST) do(ctx context.Context, method, table string, params url.Values, body any, accept string) Response {
	endpoint := r.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return failure(0, CodeDecode, "failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return failure(0, CodeTransport, "failed to build request: %v", err)
	}

	bearer := r.apiKey
	if r.token != nil {
		if tok := r.token(); tok != "" {
			bearer = tok
		}
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", mediaJSON)
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return failure(0, CodeTransport, "%v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(resp.StatusCode, CodeTransport, "failed to read response: %v", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		storeErr := &Error{}
		if err := json.Unmarshal(data, storeErr); err != nil || storeErr.Message == "" {
			storeErr = &Error{Message: strings.TrimSpace(string(data))}
			if storeErr.Message == "" {
				storeErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		storeErr.Status = resp.StatusCode
		return Response{Status: resp.StatusCode, Error: storeErr}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("null")
	}
	return Response{Data: data, Status: resp.StatusCode}
}

func addFilters(params url.Values, filters []Filter) {
	for _, f := range filters {
		if f.Value == nil {
			params.Add(f.Column, "is.null")
			continue
		}
		params.Add(f.Column, "eq."+formatValue(f.Value))
	}
}

func formatValue(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return tv.String()
	default:
		return fmt.Sprint(tv)
	}
}
