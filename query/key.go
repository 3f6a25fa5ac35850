// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package query

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Key identifies a cached read: a collection name plus an optional selector.
// Keys are compared through their canonical String form, so selector field
// order never matters.
type Key struct {
	Collection string
	Selector   map[string]any
}

// NewKey copies selector so later changes by the caller cannot alter the key.
func NewKey(collection string, selector map[string]any) Key {
	k := Key{Collection: collection}
	if len(selector) > 0 {
		k.Selector = make(map[string]any, len(selector))
		for field, v := range selector {
			k.Selector[field] = v
		}
	}
	return k
}

// String returns the canonical form, e.g. items{"owner":"u1"}.
// encoding/json writes map keys in sorted order.
func (k Key) String() string {
	if len(k.Selector) == 0 {
		return k.Collection
	}
	sel, err := json.Marshal(k.Selector)
	if err != nil {
		sel = []byte(fmt.Sprintf("%v", k.Selector))
	}
	return k.Collection + string(sel)
}

// Equal reports whether both keys address the same cache entry.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// Matches reports whether k falls under prefix: same collection and every
// selector field of prefix present in k with an equal value. A bare
// collection key matches every key of that collection.
func (k Key) Matches(prefix Key) bool {
	if k.Collection != prefix.Collection {
		return false
	}
	for field, want := range prefix.Selector {
		got, ok := k.Selector[field]
		if !ok || !sameValue(got, want) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
