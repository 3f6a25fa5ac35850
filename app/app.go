// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/itemboard/auth"
	"github.com/danielhkuo/itemboard/cliparse"
	"github.com/danielhkuo/itemboard/db"
	"github.com/danielhkuo/itemboard/models"
	"github.com/danielhkuo/itemboard/pages"
	"github.com/danielhkuo/itemboard/router"
)

// App wires the data client, the session and the router to the pages and
// drives them from a line-based command stream.
type App struct {
	cfg      cliparse.Config
	db       *db.Client
	sessions *auth.Manager
	router   *router.Router
	pages    map[string]pages.Page
	out      io.Writer
	now      func() time.Time
}

// Patterns is the route table. "/" catches every path the others miss.
var Patterns = []string{
	"/{$}",
	"/about",
	"/faq",
	"/contact",
	"/pricing",
	"/dashboard",
	"/auth/{type}",
	"/settings/{section}",
	"/legal/{section}",
	"/purchase/{plan}",
	"/items/{id}",
	"/",
}

// New creates the application over hist. Options are passed to the router.
func New(cfg cliparse.Config, client *db.Client, sessions *auth.Manager, hist router.History, out io.Writer, opts ...router.Option) *App {
	r := router.New(hist, router.NewRoutes(Patterns...), opts...)
	h := pages.NewHandler(client, sessions, r)

	return &App{
		cfg:      cfg,
		db:       client,
		sessions: sessions,
		router:   r,
		pages: map[string]pages.Page{
			"/{$}":                h.Index,
			"/about":              h.About,
			"/faq":                h.FAQ,
			"/contact":            h.Contact,
			"/pricing":            h.Pricing,
			"/dashboard":          h.Dashboard,
			"/auth/{type}":        h.Auth,
			"/settings/{section}": h.Settings,
			"/legal/{section}":    h.Legal,
			"/purchase/{plan}":    h.Purchase,
			"/items/{id}":         h.Item,
			"/":                   h.NotFound,
		},
		out: out,
		now: time.Now,
	}
}

// Router returns the application's router.
func (a *App) Router() *router.Router {
	return a.router
}

// Close stops observing the history.
func (a *App) Close() {
	a.router.Close()
}

// Render writes the page of the current route state.
func (a *App) Render(ctx context.Context) {
	a.render(ctx, a.router.State())
}

func (a *App) render(ctx context.Context, s router.State) {
	page, ok := a.pages[s.Pattern]
	if !ok {
		page = a.pages["/"]
	}

	var buf bytes.Buffer
	page(ctx, &buf, s)

	// A page that redirected has been replaced by the page it redirected to.
	if a.router.State().Location.Key != s.Location.Key {
		return
	}
	fmt.Fprintf(a.out, "[%s]\n", s.Location.String())
	a.out.Write(buf.Bytes())
}

// Run renders the current page, then executes commands read from in until
// "quit", end of input or ctx is done. Every route change re-renders.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	stop := a.router.Subscribe(func(s router.State) { a.render(ctx, s) })
	defer stop()

	a.Render(ctx)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			break
		}
		if a.Exec(ctx, scanner.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out)
	return scanner.Err()
}

const help = `Commands:
  go <path>            open a page
  replace <path>       open a page in place of the current one
  back, forward        move through history
  login <email>        sign in
  logout               sign out
  new <name>           add an item
  rename <id> <name>   rename an item
  star <id>            feature an item (unstar to undo)
  rm <id>              delete an item
  help                 show this list
  quit                 exit`

// Exec runs one command line. It reports whether the command asked to quit.
func (a *App) Exec(ctx context.Context, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(a.out, help)
	case "go", "push":
		err = a.router.Push(arg)
	case "replace":
		err = a.router.Replace(arg)
	case "back":
		a.router.History().Go(-1)
	case "forward":
		a.router.History().Go(1)
	case "login":
		err = a.login(ctx, arg)
	case "logout":
		a.sessions.SignOut()
		a.Render(ctx)
	case "new":
		err = a.createItem(ctx, arg)
	case "rename":
		id, name, _ := strings.Cut(arg, " ")
		err = a.updateItem(ctx, id, models.ItemUpdate{Name: strings.TrimSpace(name)})
	case "star", "unstar":
		featured := cmd == "star"
		err = a.updateItem(ctx, arg, models.ItemUpdate{Featured: &featured})
	case "rm":
		err = a.deleteItem(ctx, arg)
	default:
		err = fmt.Errorf("unknown command %q (try help)", cmd)
	}

	if err != nil {
		slog.Debug("command failed", "command", cmd, "error", err)
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return false
}

var errNeedUser = errors.New("sign in first (login <email>)")

// login signs in and continues to the ?next= location when the sign-in
// page is showing.
func (a *App) login(ctx context.Context, email string) error {
	id, err := auth.IssueIdentity(email, a.cfg.AuthSecret, a.cfg.SessionTTL, a.now())
	if err != nil {
		return err
	}
	if err := a.sessions.SignIn(ctx, id); err != nil {
		return err
	}

	s := a.router.State()
	if s.Pattern != "/auth/{type}" {
		a.Render(ctx)
		return nil
	}
	next := s.Query.Get("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/dashboard"
	}
	return a.router.Replace(next)
}

func (a *App) owner() (string, error) {
	id, ok := a.sessions.Identity()
	if !ok {
		return "", errNeedUser
	}
	return id.ID, nil
}

func (a *App) createItem(ctx context.Context, name string) error {
	owner, err := a.owner()
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("usage: new <name>")
	}

	item, err := a.db.Items.Create(ctx, models.NewItem{Owner: owner, Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s\n", item.ID)
	a.Render(ctx)
	return nil
}

func (a *App) updateItem(ctx context.Context, id string, update models.ItemUpdate) error {
	if _, err := a.owner(); err != nil {
		return err
	}
	if id == "" || (update.Name == "" && update.Featured == nil) {
		return errors.New("usage: rename <id> <name> | star <id> | unstar <id>")
	}
	if err := a.checkOwner(ctx, id); err != nil {
		return err
	}

	if _, err := a.db.Items.Update(ctx, id, update); err != nil {
		return err
	}
	a.Render(ctx)
	return nil
}

func (a *App) deleteItem(ctx context.Context, id string) error {
	if _, err := a.owner(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("usage: rm <id>")
	}
	if err := a.checkOwner(ctx, id); err != nil {
		return err
	}

	ack, err := a.db.Items.Delete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", ack.ID)
	a.Render(ctx)
	return nil
}

// checkOwner rejects writes to items of other users.
func (a *App) checkOwner(ctx context.Context, id string) error {
	owner, err := a.owner()
	if err != nil {
		return err
	}
	item, err := a.db.Items.Get(ctx, id).Unwrap()
	if err != nil {
		return err
	}
	if item.Owner != owner {
		return &db.StoreError{Op: "get item", Kind: db.ErrNotFound}
	}
	return nil
}
