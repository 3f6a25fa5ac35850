// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/itemboard/models"
	"github.com/danielhkuo/itemboard/query"
	"github.com/danielhkuo/itemboard/store"
	"github.com/danielhkuo/itemboard/testutil"
)

func setupClient(t *testing.T) (*Client, *testutil.CountingStore) {
	t.Helper()

	counting := testutil.NewCountingStore(testutil.SetupTestStore(t))
	return New(counting, query.New()), counting
}

func TestGet_DisabledForEmptyID(t *testing.T) {
	client, counting := setupClient(t)

	item := client.Items.Get(context.Background(), "")
	user := client.Users.Get(context.Background(), "")
	list := client.Items.ByOwner(context.Background(), "")

	assert.Equal(t, query.StatusDisabled, item.Status)
	assert.Equal(t, query.StatusDisabled, user.Status)
	assert.Equal(t, query.StatusDisabled, list.Status)
	assert.NoError(t, item.Err)
	assert.Zero(t, counting.Total())
}

func TestGet_Cached(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	item := testutil.CreateTestItem(t, counting, "alice", "Lamp", time.Time{})

	first := client.Items.Get(context.Background(), item.ID)
	second := client.Items.Get(context.Background(), item.ID)

	require.NoError(t, first.Err)
	assert.Equal(t, "Lamp", first.Data.Name)
	assert.Equal(t, first.Data, second.Data)
	assert.EqualValues(t, 1, counting.Selects.Load())
}

func TestUsers_GetIncludesCustomer(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	testutil.CreateTestCustomer(t, counting, "alice", models.SubscriptionActive)
	testutil.CreateTestUser(t, counting, "bob", "bob@example.com")

	alice, err := client.Users.Get(context.Background(), "alice").Unwrap()
	require.NoError(t, err)
	require.NotNil(t, alice.Customer)
	assert.Equal(t, "cus_alice", alice.Customer.StripeCustomerID)
	assert.True(t, alice.HasActivePlan())

	bob, err := client.Users.Get(context.Background(), "bob").Unwrap()
	require.NoError(t, err)
	assert.Nil(t, bob.Customer)
	assert.False(t, bob.HasActivePlan())
}

func TestUpdate_NextReadSeesChange(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	item := testutil.CreateTestItem(t, counting, "alice", "Lamp", time.Time{})

	before := client.Items.Get(context.Background(), item.ID)
	require.NoError(t, before.Err)

	featured := true
	updated, err := client.Items.Update(context.Background(), item.ID, models.ItemUpdate{Name: "Desk lamp", Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", updated.Name)
	assert.True(t, updated.Featured)

	after := client.Items.Get(context.Background(), item.ID)
	require.NoError(t, after.Err)
	assert.Equal(t, "Desk lamp", after.Data.Name)
	assert.True(t, after.Data.Featured)
	assert.Equal(t, item.CreatedAt, after.Data.CreatedAt)
}

func TestUsers_Update(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")

	client.Users.Get(context.Background(), "alice")
	_, err := client.Users.Update(context.Background(), "alice", models.UserUpdate{Name: "Alice"})
	require.NoError(t, err)

	user, err := client.Users.Get(context.Background(), "alice").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestCreate_ListIncludesNewRecord(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")

	empty, err := client.Items.ByOwner(context.Background(), "alice").Unwrap()
	require.NoError(t, err)
	assert.Empty(t, empty)

	created, err := client.Items.Create(context.Background(), models.NewItem{Owner: "alice", Name: "Chair"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	list, err := client.Items.ByOwner(context.Background(), "alice").Unwrap()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestByOwner_NewestFirst(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	testutil.CreateTestUser(t, counting, "bob", "bob@example.com")

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	testutil.CreateTestItem(t, counting, "alice", "first", base)
	testutil.CreateTestItem(t, counting, "alice", "third", base.Add(2*time.Hour))
	testutil.CreateTestItem(t, counting, "alice", "second", base.Add(time.Hour))
	testutil.CreateTestItem(t, counting, "bob", "not mine", base.Add(3*time.Hour))

	list, err := client.Items.ByOwner(context.Background(), "alice").Unwrap()
	require.NoError(t, err)

	names := make([]string, len(list))
	for i, it := range list {
		names[i] = it.Name
	}
	assert.Equal(t, []string{"third", "second", "first"}, names)
}

func TestDelete_ThenGetIsNotFound(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	item := testutil.CreateTestItem(t, counting, "alice", "Lamp", time.Time{})

	require.NoError(t, client.Items.Get(context.Background(), item.ID).Err)

	ack, err := client.Items.Delete(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteResult{ID: item.ID, Deleted: 1}, ack)

	res := client.Items.Get(context.Background(), item.ID)
	assert.Equal(t, query.StatusError, res.Status)
	assert.True(t, IsNotFound(res.Err))

	var storeErr *store.Error
	require.True(t, errors.As(res.Err, &storeErr))
	assert.Equal(t, store.CodeNoRows, storeErr.Code)

	list, err := client.Items.ByOwner(context.Background(), "alice").Unwrap()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete_MissingRecord(t *testing.T) {
	client, _ := setupClient(t)

	ack, err := client.Items.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, ack.Deleted)
}

func TestUpdate_MissingRecord(t *testing.T) {
	client, _ := setupClient(t)

	_, err := client.Items.Update(context.Background(), "missing", models.ItemUpdate{Name: "x"})
	assert.True(t, IsNotFound(err))
}

func TestWatchByOwner_RefreshedBeforeCreateReturns(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")

	var counts []int
	stop := client.Items.WatchByOwner(context.Background(), "alice", func(r query.Result[[]models.Item]) {
		counts = append(counts, len(r.Data))
	})
	defer stop()

	_, err := client.Items.Create(context.Background(), models.NewItem{Owner: "alice", Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, counts)

	_, err = client.Items.Create(context.Background(), models.NewItem{Owner: "alice", Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, counts)
}

func TestWatch_SeesDelete(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	item := testutil.CreateTestItem(t, counting, "alice", "Lamp", time.Time{})

	var last query.Result[models.Item]
	stop := client.Items.Watch(context.Background(), item.ID, func(r query.Result[models.Item]) { last = r })
	defer stop()
	require.NoError(t, last.Err)

	_, err := client.Items.Delete(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, IsNotFound(last.Err))
}

func TestUpdate_WatchersNotifiedInTurn(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	item := testutil.CreateTestItem(t, counting, "alice", "Lamp", time.Time{})

	// Both watchers append to the same slice without locking.
	var seen []string
	stopItem := client.Items.Watch(context.Background(), item.ID, func(r query.Result[models.Item]) {
		seen = append(seen, "item:"+r.Data.Name)
	})
	defer stopItem()
	stopList := client.Items.WatchByOwner(context.Background(), "alice", func(r query.Result[[]models.Item]) {
		seen = append(seen, "list")
	})
	defer stopList()
	seen = seen[:0]

	for i := range 50 {
		name := fmt.Sprintf("Lamp %d", i)
		_, err := client.Items.Update(context.Background(), item.ID, models.ItemUpdate{Name: name})
		require.NoError(t, err)
		require.Len(t, seen, 2*(i+1))
		assert.ElementsMatch(t, []string{"item:" + name, "list"}, seen[2*i:])
	}
}

func TestLookup_BypassesCache(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	before := counting.Selects.Load()

	for range 3 {
		_, err := client.Users.Lookup(context.Background(), "alice")
		require.NoError(t, err)
	}
	assert.EqualValues(t, before+3, counting.Selects.Load())
	assert.Zero(t, client.Queries().Len())
}

func TestCreate_RejectsNonObject(t *testing.T) {
	client, counting := setupClient(t)

	_, err := client.Items.Create(context.Background(), "not a record")
	assert.True(t, IsTransient(err))
	assert.Zero(t, counting.Inserts.Load())
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  *store.Error
		want error
	}{
		{"no rows", &store.Error{Code: store.CodeNoRows, Status: http.StatusNotAcceptable}, ErrNotFound},
		{"http 404", &store.Error{Status: http.StatusNotFound}, ErrNotFound},
		{"unknown table", &store.Error{Code: store.CodeUnknownTable, Status: http.StatusNotFound}, ErrTransient},
		{"http 401", &store.Error{Status: http.StatusUnauthorized}, ErrUnauthorized},
		{"rls", &store.Error{Code: store.CodeForbidden, Status: http.StatusForbidden}, ErrUnauthorized},
		{"expired jwt", &store.Error{Code: store.CodeJWTExpired, Status: http.StatusUnauthorized}, ErrUnauthorized},
		{"server", &store.Error{Status: http.StatusInternalServerError}, ErrTransient},
		{"transport", &store.Error{Code: store.CodeTransport}, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(testutil.FailingStore{Err: tt.err}, query.New())

			res := client.Items.Get(context.Background(), "x")
			assert.ErrorIs(t, res.Err, tt.want)

			_, err := client.Items.Create(context.Background(), models.NewItem{Owner: "o"})
			assert.ErrorIs(t, err, tt.want)

			var payload *store.Error
			require.True(t, errors.As(err, &payload))
			assert.Same(t, tt.err, payload)
		})
	}
}

func TestFailedWriteDoesNotInvalidate(t *testing.T) {
	client, counting := setupClient(t)
	testutil.CreateTestUser(t, counting, "alice", "alice@example.com")
	client.Items.ByOwner(context.Background(), "alice")

	_, err := client.Items.Create(context.Background(), models.NewItem{Owner: "nobody", Name: "x"})
	require.Error(t, err)

	res, ok := query.Peek[[]models.Item](client.Queries(), client.Items.OwnerKey("alice"))
	require.True(t, ok)
	assert.False(t, res.Stale)
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Op: "get item", Kind: ErrNotFound, Err: &store.Error{Code: store.CodeNoRows, Message: "none"}}
	assert.Equal(t, "db: get item: record not found: store: PGRST116: none", err.Error())

	err = &StoreError{Op: "update item", Kind: ErrNotFound}
	assert.Equal(t, "db: update item: record not found", err.Error())
}

func TestREST_NoRowsIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	}))
	defer server.Close()

	client := New(store.NewREST(server.URL, "anon"), query.New())

	res := client.Users.Get(context.Background(), "missing")
	assert.True(t, IsNotFound(res.Err))

	var payload *store.Error
	require.True(t, errors.As(res.Err, &payload))
	assert.Equal(t, http.StatusNotAcceptable, payload.Status)
}
