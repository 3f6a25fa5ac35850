// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package app wires the data client, the session and the router to the pages.

# Route Table

	/                   Index
	/about              About
	/faq                FAQ
	/contact            Contact
	/pricing            Pricing
	/dashboard          Dashboard (signed in)
	/auth/{type}        Auth: signin, signup, forgotpass, changepass
	/settings/{section} Settings: general, password, billing (signed in)
	/legal/{section}    Legal: terms-of-service, privacy-policy
	/purchase/{plan}    Purchase (signed in)
	/items/{id}         Item (signed in)
	everything else     NotFound

# Commands

Run reads one command per line:

	go /items/42?sort=desc
	back
	login alice@example.com
	new Desk lamp
	rename <id> Floor lamp
	rm <id>
	quit

Every route change renders the new page, prefixed with its location. Writes
re-render the current page after the data client has refreshed the queries
they affect.
*/
package app
