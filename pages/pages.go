// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pages

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/itemboard/auth"
	"github.com/danielhkuo/itemboard/db"
	"github.com/danielhkuo/itemboard/router"
)

// Page renders one route state.
type Page func(ctx context.Context, w io.Writer, s router.State)

// Plan is a subscription plan offered on the pricing page.
type Plan struct {
	ID         string
	Name       string
	PriceCents int64
}

var Plans = []Plan{
	{ID: "starter", Name: "Starter", PriceCents: 900},
	{ID: "pro", Name: "Pro", PriceCents: 2900},
	{ID: "business", Name: "Business", PriceCents: 4900},
}

// FindPlan returns the plan with the given id.
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Price formats the monthly price, e.g. "$29/mo".
func (p Plan) Price() string {
	return "$" + humanize.Comma(p.PriceCents/100) + "/mo"
}

type Handler struct {
	db     *db.Client
	auth   *auth.Manager
	router *router.Router
	now    func() time.Time
}

func NewHandler(client *db.Client, m *auth.Manager, r *router.Router) *Handler {
	return &Handler{db: client, auth: m, router: r, now: time.Now}
}

// age formats how long ago t was, e.g. "3 hours ago".
func (h *Handler) age(t time.Time) string {
	return humanize.RelTime(t, h.now(), "ago", "from now")
}

// currentUser guards a page. It returns false after redirecting to the
// sign-in page, or after writing an error when the user record could not
// be loaded.
func (h *Handler) currentUser(ctx context.Context, w io.Writer) (auth.User, bool) {
	if !auth.RequireUser(h.router, h.auth) {
		return auth.User{}, false
	}

	u, err := h.auth.User(ctx)
	if err != nil {
		fmt.Fprintf(w, "Could not load your account: %v\n", err)
		return auth.User{}, false
	}
	return u, true
}

// Index handles /
func (h *Handler) Index(ctx context.Context, w io.Writer, s router.State) {
	fmt.Fprintln(w, "Itemboard")
	fmt.Fprintln(w, "Keep track of your things.")
	fmt.Fprintln(w)
	if id, ok := h.auth.Identity(); ok {
		fmt.Fprintf(w, "Welcome back, %s. Your items are on /dashboard.\n", id.Email)
		return
	}
	fmt.Fprintln(w, "Sign in on /auth/signin to get started, or see /pricing.")
}

// About handles /about
func (h *Handler) About(ctx context.Context, w io.Writer, s router.State) {
	fmt.Fprintln(w, "About")
	fmt.Fprintln(w, "Itemboard is a small place to list the things you own.")
}

// FAQ handles /faq
func (h *Handler) FAQ(ctx context.Context, w io.Writer, s router.State) {
	fmt.Fprintln(w, "Frequently asked questions")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Q: Is there a free plan?")
	fmt.Fprintf(w, "A: You can list items for free. Paid plans start at %s.\n", Plans[0].Price())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Q: Can I cancel any time?")
	fmt.Fprintln(w, "A: Yes, from /settings/billing.")
}

// Contact handles /contact
func (h *Handler) Contact(ctx context.Context, w io.Writer, s router.State) {
	fmt.Fprintln(w, "Contact")
	fmt.Fprintln(w, "Write to support@itemboard.example and we will get back to you.")
}

// Pricing handles /pricing
func (h *Handler) Pricing(ctx context.Context, w io.Writer, s router.State) {
	fmt.Fprintln(w, "Pricing")
	for _, p := range Plans {
		fmt.Fprintf(w, "  %-10s %8s  /purchase/%s\n", p.Name, p.Price(), p.ID)
	}
}

// Dashboard handles /dashboard
// Lists the signed-in user's items, newest first
func (h *Handler) Dashboard(ctx context.Context, w io.Writer, s router.State) {
	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	fmt.Fprintln(w, "Dashboard")
	fmt.Fprintf(w, "Signed in as %s\n", displayName(u))

	items, err := h.db.Items.ByOwner(ctx, u.ID).Unwrap()
	if err != nil {
		fmt.Fprintf(w, "Could not load items: %v\n", err)
		return
	}

	fmt.Fprintln(w, english.Plural(len(items), "item", ""))
	for _, it := range items {
		star := " "
		if it.Featured {
			star = "*"
		}
		fmt.Fprintf(w, "  %s %s  %s  (added %s)\n", star, it.ID, it.Name, h.age(it.CreatedAt))
	}
}

// Item handles /items/{id}
func (h *Handler) Item(ctx context.Context, w io.Writer, s router.State) {
	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	item, err := h.db.Items.Get(ctx, s.PathParams["id"]).Unwrap()
	switch {
	case db.IsNotFound(err), err == nil && item.Owner != u.ID:
		fmt.Fprintln(w, "Item not found")
		return
	case db.IsUnauthorized(err):
		fmt.Fprintln(w, "You do not have access to this item")
		return
	case err != nil:
		fmt.Fprintf(w, "Could not load item: %v\n", err)
		return
	}

	fmt.Fprintln(w, item.Name)
	fmt.Fprintf(w, "  id:       %s\n", item.ID)
	fmt.Fprintf(w, "  featured: %t\n", item.Featured)
	fmt.Fprintf(w, "  added:    %s\n", h.age(item.CreatedAt))
}

var authTypes = map[string]string{
	"signin":     "Sign in",
	"signup":     "Sign up",
	"forgotpass": "Reset your password",
	"changepass": "Change your password",
}

// Auth handles /auth/{type}
func (h *Handler) Auth(ctx context.Context, w io.Writer, s router.State) {
	title, ok := authTypes[s.PathParams["type"]]
	if !ok {
		h.NotFound(ctx, w, s)
		return
	}

	fmt.Fprintln(w, title)
	if id, ok := h.auth.Identity(); ok {
		fmt.Fprintf(w, "You are signed in as %s.\n", id.Email)
		return
	}
	fmt.Fprintln(w, "Type: login <email>")
	if next := s.Query.Get("next"); next != "" {
		fmt.Fprintf(w, "You will continue to %s.\n", next)
	}
}

var settingsSections = []string{"general", "password", "billing"}

// Settings handles /settings/{section}
func (h *Handler) Settings(ctx context.Context, w io.Writer, s router.State) {
	section := s.PathParams["section"]
	known := false
	for _, name := range settingsSections {
		known = known || name == section
	}
	if !known {
		h.NotFound(ctx, w, s)
		return
	}

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	fmt.Fprintf(w, "Settings: %s\n", section)
	switch section {
	case "general":
		fmt.Fprintf(w, "  email: %s\n", u.Email)
		fmt.Fprintf(w, "  name:  %s\n", u.Name)
		if !u.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  member since %s\n", h.age(u.CreatedAt))
		}
	case "password":
		fmt.Fprintln(w, "Passwords are managed by your identity provider.")
	case "billing":
		if u.Customer == nil {
			fmt.Fprintln(w, "No plan yet. See /pricing.")
			return
		}
		plan := u.Customer.StripePriceID
		if p, ok := FindPlan(plan); ok {
			plan = p.Name
		}
		fmt.Fprintf(w, "  plan:   %s\n", plan)
		fmt.Fprintf(w, "  status: %s\n", u.Customer.StripeSubscriptionStatus)
	}
}

var legalSections = map[string]string{
	"terms-of-service": "Terms of Service",
	"privacy-policy":   "Privacy Policy",
}

// Legal handles /legal/{section}
func (h *Handler) Legal(ctx context.Context, w io.Writer, s router.State) {
	title, ok := legalSections[s.PathParams["section"]]
	if !ok {
		h.NotFound(ctx, w, s)
		return
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "The full text is available from support@itemboard.example.")
}

// Purchase handles /purchase/{plan}
func (h *Handler) Purchase(ctx context.Context, w io.Writer, s router.State) {
	plan, ok := FindPlan(s.PathParams["plan"])
	if !ok {
		h.NotFound(ctx, w, s)
		return
	}

	u, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	if u.HasActivePlan() {
		fmt.Fprintln(w, "You already have an active plan. Manage it on /settings/billing.")
		return
	}
	fmt.Fprintf(w, "Checkout for %s (%s) continues with the billing provider.\n", plan.Name, plan.Price())
}

// NotFound handles every path no other route matches
func (h *Handler) NotFound(ctx context.Context, w io.Writer, s router.State) {
	fmt.Fprintf(w, "Page not found: %s\n", s.Pathname)
}

func displayName(u auth.User) string {
	if u.Name == "" {
		return u.Email
	}
	return fmt.Sprintf("%s (%s)", u.Email, u.Name)
}
