// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"

	"github.com/danielhkuo/itemboard/models"
	"github.com/danielhkuo/itemboard/query"
	"github.com/danielhkuo/itemboard/store"
)

// Client is the data access layer. Every read goes through the shared query
// cache; every write invalidates the cached reads it could have changed.
type Client struct {
	Users *Users
	Items *Items

	queries *query.Client
}

func New(s store.Store, q *query.Client) *Client {
	return &Client{
		Users: &Users{records[models.User]{
			store:   s,
			queries: q,
			table:   models.TableUsers,
			single:  "user",
			embed:   []string{models.TableCustomers},
		}},
		Items: &Items{records[models.Item]{
			store:   s,
			queries: q,
			table:   models.TableItems,
			single:  "item",
		}},
		queries: q,
	}
}

// Queries returns the shared cache the client writes through.
func (c *Client) Queries() *query.Client {
	return c.queries
}

// Users reads and writes user records. By-id reads include the billing
// customer under User.Customer.
type Users struct {
	records[models.User]
}

// Items reads and writes item records.
type Items struct {
	records[models.Item]
}

// ByOwner returns the owner's items, newest first. An empty owner yields a
// disabled result and no request.
func (it *Items) ByOwner(ctx context.Context, owner string) query.Result[[]models.Item] {
	return query.Fetch(ctx, it.queries, it.byOwner(owner))
}

// WatchByOwner calls fn with the owner's items now and after every item write.
func (it *Items) WatchByOwner(ctx context.Context, owner string, fn func(query.Result[[]models.Item])) (stop func()) {
	return query.Watch(ctx, it.queries, it.byOwner(owner), fn)
}

// OwnerKey returns the query key of an owner's item list.
func (it *Items) OwnerKey(owner string) query.Key {
	return query.NewKey(it.table, map[string]any{"owner": owner})
}

func (it *Items) byOwner(owner string) query.Query[[]models.Item] {
	return query.Query[[]models.Item]{
		Key:     it.OwnerKey(owner),
		Enabled: owner != "",
		Fn: func(ctx context.Context) ([]models.Item, error) {
			resp := it.store.Select(ctx, store.Select{
				Table:   it.table,
				Filters: []store.Filter{store.Eq("owner", owner)},
				Order:   &store.Order{Column: "createdAt", Ascending: false},
			})

			var items []models.Item
			if err := handle("list items", resp, &items); err != nil {
				return nil, err
			}
			if items == nil {
				items = []models.Item{}
			}
			return items, nil
		},
	}
}
