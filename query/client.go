// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package query

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Status of a cached read.
type Status int

const (
	StatusDisabled Status = iota // query not enabled, nothing fetched
	StatusPending                // no result yet
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Result is a snapshot of one cache entry.
type Result[T any] struct {
	Data      T
	Err       error
	Status    Status
	Stale     bool
	UpdatedAt time.Time
}

// Unwrap returns the data and error. A disabled result yields the zero value
// and a nil error.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err
}

// Query describes one read: where it is cached, how it is fetched, and
// whether it may run at all.
type Query[T any] struct {
	Key     Key
	Fn      func(ctx context.Context) (T, error)
	Enabled bool
}

type entry struct {
	key       Key
	fetch     func(ctx context.Context) (any, error)
	value     any
	err       error
	status    Status
	stale     bool
	gen       uint64 // bumped by every invalidation
	updatedAt time.Time
	lastUsed  time.Time
	observers map[uint64]func()
}

// Client is the shared query cache. Create one per application and hand it
// to every component that reads or writes records.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	flights singleflight.Group
	nextID  uint64

	staleTime   time.Duration
	gcTime      time.Duration
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Client)

// WithStaleTime makes successful results go stale on their own after d.
// Zero (the default) keeps them fresh until invalidated.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// WithGCTime sets how long an unobserved entry survives Collect. Default 5m.
func WithGCTime(d time.Duration) Option {
	return func(c *Client) { c.gcTime = d }
}

// WithRefetchConcurrency bounds parallel refetches during Invalidate. Default 4.
func WithRefetchConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		entries:     make(map[string]*entry),
		gcTime:      5 * time.Minute,
		concurrency: 4,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached result for q when it is fresh and fetches it
// otherwise. Concurrent fetches of the same key share one call.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) Result[T] {
	if !q.Enabled {
		return Result[T]{Status: StatusDisabled}
	}

	e := c.entry(q.Key, erase(q.Fn))
	if !c.fresh(e) {
		c.refetch(ctx, e)
	}
	return snapshot[T](c, e)
}

// Watch subscribes fn to q. fn receives the current result right away and a
// new one every time an invalidation refetches the entry. Calling stop
// unsubscribes; it is safe to call more than once.
func Watch[T any](ctx context.Context, c *Client, q Query[T], fn func(Result[T])) (stop func()) {
	if !q.Enabled {
		fn(Result[T]{Status: StatusDisabled})
		return func() {}
	}

	e := c.entry(q.Key, erase(q.Fn))
	id := c.observe(e, func() { fn(snapshot[T](c, e)) })
	fn(Fetch(ctx, c, q))

	var once sync.Once
	return func() {
		once.Do(func() { c.unobserve(e, id) })
	}
}

// Peek returns the cached result for key without fetching.
func Peek[T any](c *Client, key Key) (Result[T], bool) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	c.mu.Unlock()
	if !ok {
		return Result[T]{}, false
	}
	return snapshot[T](c, e), true
}

// Invalidate marks every entry matching one of the prefixes as stale.
// Entries that have observers are refetched concurrently, then their
// observers are notified in key order on the calling goroutine before
// Invalidate returns. The rest refetch on their next read.
func (c *Client) Invalidate(ctx context.Context, prefixes ...Key) {
	c.mu.Lock()
	var active []*entry
	matched := 0
	for _, e := range c.entries {
		for _, p := range prefixes {
			if !e.key.Matches(p) {
				continue
			}
			e.stale = true
			e.gen++
			matched++
			if len(e.observers) > 0 {
				active = append(active, e)
			}
			break
		}
	}
	c.mu.Unlock()

	c.logger.Debug("queries invalidated", "prefixes", keyStrings(prefixes), "matched", matched, "refetching", len(active))

	slices.SortFunc(active, func(a, b *entry) int {
		return strings.Compare(a.key.String(), b.key.String())
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, e := range active {
		g.Go(func() error {
			c.refetch(gctx, e)
			return nil
		})
	}
	g.Wait()

	for _, e := range active {
		c.notify(e)
	}
}

// Collect evicts entries nobody observes that were not used for the GC time.
// It returns the number of evicted entries.
func (c *Client) Collect() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for k, e := range c.entries {
		if len(e.observers) == 0 && now.Sub(e.lastUsed) >= c.gcTime {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Client) entry(key Key, fetch func(ctx context.Context) (any, error)) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{
			key:       NewKey(key.Collection, key.Selector),
			status:    StatusPending,
			observers: make(map[uint64]func()),
		}
		c.entries[k] = e
	}
	e.fetch = fetch
	e.lastUsed = c.now()
	return e
}

func (c *Client) fresh(e *entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.status != StatusSuccess || e.stale {
		return false
	}
	return c.staleTime == 0 || c.now().Sub(e.updatedAt) < c.staleTime
}

// refetch runs the entry's fetcher once per key and generation. A fetch that
// started before an invalidation stores its result but leaves the entry stale.
func (c *Client) refetch(ctx context.Context, e *entry) {
	c.mu.Lock()
	gen := e.gen
	fetch := e.fetch
	flight := e.key.String() + "#" + strconv.FormatUint(gen, 10)
	c.mu.Unlock()

	c.flights.Do(flight, func() (any, error) {
		// A flight for this generation may have finished between the
		// freshness check and here.
		if c.fresh(e) {
			return nil, nil
		}
		v, err := fetch(ctx)

		c.mu.Lock()
		if err != nil {
			e.err = err
			e.status = StatusError
		} else {
			e.value = v
			e.err = nil
			e.status = StatusSuccess
			e.updatedAt = c.now()
		}
		e.stale = e.gen != gen
		c.mu.Unlock()

		if err != nil {
			c.logger.Debug("query failed", "key", e.key.String(), "error", err)
		} else {
			c.logger.Debug("query fetched", "key", e.key.String())
		}
		return v, err
	})
}

func (c *Client) observe(e *entry, fn func()) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	e.observers[c.nextID] = fn
	return c.nextID
}

func (c *Client) unobserve(e *entry, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(e.observers, id)
	e.lastUsed = c.now()
}

func (c *Client) notify(e *entry) {
	c.mu.Lock()
	fns := make([]func(), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func snapshot[T any](c *Client, e *entry) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Result[T]{
		Err:       e.err,
		Status:    e.status,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}
	if v, ok := e.value.(T); ok {
		r.Data = v
	}
	return r
}

func erase[T any](fn func(ctx context.Context) (T, error)) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

func keyStrings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
