// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth holds the signed-in session and merges it with the stored user.

# Sessions

Identities come from an identity provider and are handed to a Manager:

	m := auth.NewManager(client.Users)
	err := m.SignIn(ctx, auth.Identity{ID: uid, Email: email, AccessToken: token})

The first sign-in of an id creates its user record. Token feeds the REST
store's bearer header:

	s := store.NewREST(url, key, store.WithAccessToken(m.Token))

# Merged User

User reads the stored record through the shared query cache and lays it
over the identity, so the settings page and the dashboard see the same
data and pick up updates:

	u, err := m.User(ctx)   // ErrSignedOut when nobody is signed in
	u.HasActivePlan()

# Local Identities

Without a hosted provider, IssueIdentity creates an identity whose user id
is an HMAC of the email (base62, stable across runs) and whose access token
is 192 random bits:

	id, err := auth.IssueIdentity("alice@example.com", secret, 24*time.Hour, time.Now())

# Guarding Pages

	if !auth.RequireUser(r, m) {
		return // replaced with /auth/signin?next=<current location>
	}
*/
package auth
