// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the record types exchanged with the backing store.

# Domain Types

  - User: account record, optionally carrying its billing Customer
  - Customer: billing customer, keyed by the owning user's id
  - Item: user-owned record, listed by owner newest first

JSON tags match the column names in the store, so a record decodes straight
from a store response:

	var item models.Item
	json.Unmarshal(resp.Data, &item)

# Write Payloads

  - NewUser, UserUpdate
  - NewItem, ItemUpdate
  - DeleteResult: acknowledgment returned by deletes

Payload fields use omitempty so an update only touches the fields that are set.
ItemUpdate.Featured is a pointer because false is a meaningful value.

# Constants

Tables:

	TableUsers     = "users"
	TableCustomers = "customers"
	TableItems     = "items"
*/
package models
