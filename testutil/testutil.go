// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/itemboard/cliparse"
	"github.com/danielhkuo/itemboard/models"
	"github.com/danielhkuo/itemboard/store"
)

// TestDBURL is an in-memory SQLite database, private to each SetupTestStore call
const TestDBURL = ":memory:"

// SetupTestStore creates a fresh store with the full schema
func SetupTestStore(t *testing.T) *store.SQL {
	t.Helper()

	s, err := store.OpenSQL(context.Background(), store.DriverSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		DatabaseURL:  TestDBURL,
		DatabaseType: store.DriverSQLite,
		StartPath:    "/",
		LogLevel:     "error",
		AuthSecret:   "test-secret",
		SessionTTL:   time.Hour,
	}
}

// CreateTestUser inserts a user and returns it
func CreateTestUser(t *testing.T, s store.Store, id, email string) models.User {
	t.Helper()

	var users []models.User
	insert(t, s, models.TableUsers, store.Values{"id": id, "email": email, "name": "Test User"}, &users)
	return users[0]
}

// CreateTestCustomer attaches a billing customer to a user
func CreateTestCustomer(t *testing.T, s store.Store, userID, status string) models.Customer {
	t.Helper()

	var customers []models.Customer
	insert(t, s, models.TableCustomers, store.Values{
		"id":                       userID,
		"stripeCustomerId":         "cus_" + userID,
		"stripeSubscriptionStatus": status,
	}, &customers)
	return customers[0]
}

// CreateTestItem inserts an item for owner, created at the given time
// (now when zero)
func CreateTestItem(t *testing.T, s store.Store, owner, name string, createdAt time.Time) models.Item {
	t.Helper()

	values := store.Values{"owner": owner, "name": name}
	if !createdAt.IsZero() {
		values["createdAt"] = createdAt
	}

	var items []models.Item
	insert(t, s, models.TableItems, values, &items)
	return items[0]
}

func insert(t *testing.T, s store.Store, table string, values store.Values, out any) {
	t.Helper()

	resp := s.Insert(context.Background(), table, []store.Values{values})
	if resp.Error != nil {
		t.Fatalf("Failed to insert into %s: %v", table, resp.Error)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("Failed to decode %s row: %v", table, err)
	}
}

// CountingStore wraps a store and counts the requests reaching it
type CountingStore struct {
	store.Store

	Selects atomic.Int32
	Inserts atomic.Int32
	Updates atomic.Int32
	Deletes atomic.Int32
}

func NewCountingStore(s store.Store) *CountingStore {
	return &CountingStore{Store: s}
}

func (c *CountingStore) Select(ctx context.Context, q store.Select) store.Response {
	c.Selects.Add(1)
	return c.Store.Select(ctx, q)
}

func (c *CountingStore) Insert(ctx context.Context, table string, rows []store.Values) store.Response {
	c.Inserts.Add(1)
	return c.Store.Insert(ctx, table, rows)
}

func (c *CountingStore) Update(ctx context.Context, table string, values store.Values, filters []store.Filter) store.Response {
	c.Updates.Add(1)
	return c.Store.Update(ctx, table, values, filters)
}

func (c *CountingStore) Delete(ctx context.Context, table string, filters []store.Filter) store.Response {
	c.Deletes.Add(1)
	return c.Store.Delete(ctx, table, filters)
}

// Total returns the number of requests of any kind
func (c *CountingStore) Total() int {
	return int(c.Selects.Load() + c.Inserts.Load() + c.Updates.Load() + c.Deletes.Load())
}

// FailingStore answers every request with the given error payload
type FailingStore struct {
	Err *store.Error
}

func (f FailingStore) fail() store.Response {
	return store.Response{Status: f.Err.Status, Error: f.Err}
}

func (f FailingStore) Select(context.Context, store.Select) store.Response { return f.fail() }

func (f FailingStore) Insert(context.Context, string, []store.Values) store.Response { return f.fail() }

func (f FailingStore) Update(context.Context, string, store.Values, []store.Filter) store.Response {
	return f.fail()
}

func (f FailingStore) Delete(context.Context, string, []store.Filter) store.Response { return f.fail() }
