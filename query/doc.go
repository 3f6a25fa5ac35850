// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package query is the shared read cache behind the data client.

Reads are cached under a Key (collection + selector). Writes call Invalidate
with a key prefix, which marks every matching entry stale. Entries somebody
is watching are refetched immediately, the others on their next read.

	c := query.New()
	res := query.Fetch(ctx, c, query.Query[models.Item]{
		Key:     query.NewKey("item", map[string]any{"id": id}),
		Fn:      func(ctx context.Context) (models.Item, error) { ... },
		Enabled: id != "",
	})

	c.Invalidate(ctx, query.NewKey("items", nil)) // every items{...} entry

A disabled query returns StatusDisabled and never calls Fn.

Concurrent reads of one key share a single fetch (singleflight). A fetch that
was already running when its entry got invalidated still stores its result,
but the entry stays stale so the next read fetches again.
*/
package query
