// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router turns a navigation history into one observable route state.

# Route Table

Routes are declared with http.ServeMux patterns:

	routes := router.NewRoutes(
		"/{$}",
		"/items/{id}",
		"/settings/{section}",
		"/",
	)

"/{$}" matches only the root and "/" catches everything else. The most
specific pattern wins, exactly as it does for an HTTP server.

# Route State

State is recomputed from scratch on every location change:

	Pattern     "/items/{id}"
	PathParams  {"id": "42"}
	Query       {"sort": ["desc"]}
	Params      query parameters with path parameters laid over them
	Pathname    "/items/42"
	Location    the raw history entry
	History     the history itself

# Navigation

	h, _ := router.NewMemoryHistory("/")
	r := router.New(h, routes, router.WithScroller(screen))
	defer r.Close()

	stop := r.Subscribe(func(s router.State) { render(s) })
	defer stop()

	r.Push("/items/42?sort=desc")   // new history entry
	r.Replace("?sort=asc")          // same entry, new query
	h.Back()                        // subscribers see the previous state

Every completed navigation resets scroll to (0, 0) before subscribers are
notified. Malformed targets such as "%zz" and targets on another origin
return a *NavigationError and leave the state as it was.
*/
package router
