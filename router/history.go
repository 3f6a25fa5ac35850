// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"sync"

	"github.com/google/uuid"
)

// Action is the kind of history change that produced a location.
type Action string

const (
	ActionPop     Action = "POP"
	ActionPush    Action = "PUSH"
	ActionReplace Action = "REPLACE"
)

// Update is delivered to history listeners after every change.
type Update struct {
	Action   Action
	Location Location
}

// History is the location source a Router observes.
type History interface {
	Location() Location
	Push(loc Location)
	Replace(loc Location)
	Go(delta int)
	Listen(fn func(Update)) (unlisten func())
}

// MemoryHistory keeps the history stack in memory. Pushing truncates any
// forward entries; Go moves within the stack without changing it.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[uint64]func(Update)
	nextID    uint64
}

// NewMemoryHistory creates a history holding the given entries, positioned
// on the last one. With no entries it starts at "/".
func NewMemoryHistory(entries ...string) (*MemoryHistory, error) {
	if len(entries) == 0 {
		entries = []string{"/"}
	}

	h := &MemoryHistory{
		entries:   make([]Location, 0, len(entries)),
		listeners: make(map[uint64]func(Update)),
	}
	root := Location{Pathname: "/"}
	for _, target := range entries {
		loc, err := Resolve(root, target)
		if err != nil {
			return nil, err
		}
		loc.Key = newKey()
		h.entries = append(h.entries, loc)
	}
	h.index = len(h.entries) - 1
	return h, nil
}

// Location returns the current entry.
func (h *MemoryHistory) Location() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push adds loc after the current entry and drops the forward entries.
func (h *MemoryHistory) Push(loc Location) {
	loc.Key = newKey()

	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], loc)
	h.index++
	h.mu.Unlock()

	h.emit(Update{Action: ActionPush, Location: loc})
}

// Replace swaps the current entry for loc.
func (h *MemoryHistory) Replace(loc Location) {
	loc.Key = newKey()

	h.mu.Lock()
	h.entries[h.index] = loc
	h.mu.Unlock()

	h.emit(Update{Action: ActionReplace, Location: loc})
}

// Go moves delta entries through the stack, clamped to its ends. Moving
// nowhere does not notify listeners.
func (h *MemoryHistory) Go(delta int) {
	h.mu.Lock()
	next := min(max(h.index+delta, 0), len(h.entries)-1)
	if next == h.index {
		h.mu.Unlock()
		return
	}
	h.index = next
	loc := h.entries[next]
	h.mu.Unlock()

	h.emit(Update{Action: ActionPop, Location: loc})
}

func (h *MemoryHistory) Back() {
	h.Go(-1)
}

func (h *MemoryHistory) Forward() {
	h.Go(1)
}

// Len returns the number of entries in the stack.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the position of the current entry.
func (h *MemoryHistory) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Listen registers fn for every change. Listeners run synchronously on the
// goroutine that changed the history.
func (h *MemoryHistory) Listen(fn func(Update)) (unlisten func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

func (h *MemoryHistory) emit(u Update) {
	h.mu.Lock()
	fns := make([]func(Update), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func newKey() string {
	return uuid.NewString()[:8]
}
