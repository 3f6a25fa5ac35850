package models

import "time"

// Table names in the backing store
const (
	TableUsers     = "users"
	TableCustomers = "customers"
	TableItems     = "items"
)

// Subscription status values reported by the billing provider
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionCanceled = "canceled"
	SubscriptionPastDue  = "past_due"
)

// Domain types

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	// Embedded one-to-one relation, nil when the user never purchased
	Customer *Customer `json:"customers,omitempty"`
}

type Customer struct {
	ID                       string `json:"id"` // same as the owning user's id
	StripeCustomerID         string `json:"stripeCustomerId"`
	StripeSubscriptionID     string `json:"stripeSubscriptionId"`
	StripePriceID            string `json:"stripePriceId"`
	StripeSubscriptionStatus string `json:"stripeSubscriptionStatus"`
}

// HasActivePlan reports whether the user's subscription is usable.
func (u *User) HasActivePlan() bool {
	if u == nil || u.Customer == nil {
		return false
	}
	switch u.Customer.StripeSubscriptionStatus {
	case SubscriptionActive, SubscriptionTrialing:
		return true
	}
	return false
}

type Item struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"createdAt"`
}

// Write payloads. Zero-valued fields are omitted so they work as partial updates.

type NewUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type UserUpdate struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type NewItem struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Featured bool   `json:"featured,omitempty"`
}

type ItemUpdate struct {
	Name     string `json:"name,omitempty"`
	Featured *bool  `json:"featured,omitempty"`
}

// DeleteResult acknowledges a delete. Deleted is 0 when nothing matched.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted int    `json:"deleted"`
}
