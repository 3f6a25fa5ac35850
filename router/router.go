// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"sync"
)

// Scroller receives the scroll reset that follows every navigation.
type Scroller interface {
	ScrollTo(x, y int)
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func(x, y int)

func (f ScrollFunc) ScrollTo(x, y int) { f(x, y) }

type Option func(*Router)

// WithScroller sets the scroll target reset to (0, 0) after each navigation.
func WithScroller(s Scroller) Option {
	return func(r *Router) { r.scroller = s }
}

// NavigateOptions controls a single navigation.
type NavigateOptions struct {
	Replace bool
	State   any
}

// Router publishes the route state of a History and navigates it.
type Router struct {
	history  History
	routes   *Routes
	scroller Scroller

	mu       sync.Mutex
	state    State
	subs     map[uint64]func(State)
	nextID   uint64
	unlisten func()
}

// New creates a router over h and starts observing it. Call Close to stop.
func New(h History, routes *Routes, opts ...Option) *Router {
	r := &Router{
		history: h,
		routes:  routes,
		subs:    make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.state = Derive(h.Location(), routes, h)
	r.unlisten = h.Listen(r.onChange)
	return r
}

// State returns the current route state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

// History returns the observed history.
func (r *Router) History() History {
	return r.history
}

// Subscribe calls fn with the new route state after every navigation,
// including back and forward moves. Subscribers run synchronously, after
// the scroll reset.
func (r *Router) Subscribe(fn func(State)) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// Navigate moves to target, relative to the current location. A malformed
// target returns a *NavigationError and changes nothing.
func (r *Router) Navigate(target string, opts NavigateOptions) error {
	loc, err := Resolve(r.history.Location(), target)
	if err != nil {
		slog.Warn("navigation rejected", "target", target, "error", err)
		return err
	}
	loc.State = opts.State

	if opts.Replace {
		r.history.Replace(loc)
	} else {
		r.history.Push(loc)
	}
	return nil
}

func (r *Router) Push(target string) error {
	return r.Navigate(target, NavigateOptions{})
}

func (r *Router) Replace(target string) error {
	return r.Navigate(target, NavigateOptions{Replace: true})
}

// Close stops observing the history. The last state stays readable.
func (r *Router) Close() {
	r.mu.Lock()
	unlisten := r.unlisten
	r.unlisten = nil
	r.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
}

func (r *Router) onChange(u Update) {
	state := Derive(u.Location, r.routes, r.history)

	r.mu.Lock()
	r.state = state
	subs := make([]func(State), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	slog.Debug("navigated", "action", u.Action, "location", u.Location.String(), "pattern", state.Pattern)

	if r.scroller != nil {
		r.scroller.ScrollTo(0, 0)
	}
	for _, fn := range subs {
		fn(state.clone())
	}
}
