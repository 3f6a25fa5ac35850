// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the data access layer over the backing record store.

# Setup

One Client per application, sharing one query cache:

	queries := query.New()
	data := db.New(st, queries)

# Reads

	res := data.Items.Get(ctx, id)          // cached under item{"id":id}
	list := data.Items.ByOwner(ctx, uid)    // cached under items{"owner":uid}
	user := data.Users.Get(ctx, uid)        // includes user.Customer

Reads return a query.Result. An empty id or owner yields StatusDisabled and
does not touch the store. Users.Lookup and Items.Lookup skip the cache.

Watch and WatchByOwner subscribe to the same results; subscribers are
refetched and notified before the write that invalidated them returns.

# Writes

	item, err := data.Items.Create(ctx, models.NewItem{Owner: uid, Name: "x"})
	item, err = data.Items.Update(ctx, id, models.ItemUpdate{Name: "y"})
	ack, err := data.Items.Delete(ctx, id)

Invalidation after a successful write:

	Create  items
	Update  item{"id":id}, items
	Delete  item{"id":id}, items

The bare collection key covers every list query, whatever its owner.

# Errors

Store failures come back as *StoreError wrapping one of:

  - ErrNotFound: no such record (PGRST116, 404)
  - ErrUnauthorized: 401, 403, 42501, expired token
  - ErrTransient: everything else, including network failures

Nothing is retried here.
*/
package db
