// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pages renders the application's pages as text.

# Handler Types

A Handler carries the data client, the session manager and the router:

	h := pages.NewHandler(client, sessions, r)

Each page is a method with the Page signature:

	func(ctx context.Context, w io.Writer, s router.State)

Pages read everything they show from the route state and the data client;
none of them keeps state between renders.

# Signed-in Pages

Dashboard, Item, Settings and Purchase require a user. Without one they
redirect to /auth/signin?next=<location> and write nothing.

# Formatting

Ages are relative ("3 hours ago") and counts are pluralized ("1 item",
"2 items") with go-humanize.
*/
package pages
