// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/danielhkuo/itemboard/db"
	"github.com/danielhkuo/itemboard/models"
	"github.com/danielhkuo/itemboard/router"
)

var ErrSignedOut = errors.New("not signed in")

// SignInPath is where RequireUser sends visitors who are not signed in.
const SignInPath = "/auth/signin"

// User is the signed-in identity merged with its stored user record.
// Record fields win over identity fields where both are set.
type User struct {
	models.User
	AccessToken string
	ExpiresAt   time.Time
}

// Manager holds the current session.
type Manager struct {
	users *db.Users
	now   func() time.Time

	mu       sync.Mutex
	identity *Identity
	subs     map[uint64]func(Identity, bool)
	nextID   uint64
}

func NewManager(users *db.Users) *Manager {
	return &Manager{
		users: users,
		now:   time.Now,
		subs:  make(map[uint64]func(Identity, bool)),
	}
}

// SignIn starts a session for id. The user record is created on first
// sign-in; the session is not kept when that fails.
func (m *Manager) SignIn(ctx context.Context, id Identity) error {
	if id.ID == "" {
		return fmt.Errorf("auth: sign in: identity has no id")
	}

	m.mu.Lock()
	prev := m.identity
	m.identity = &id
	m.mu.Unlock()

	if err := m.ensureUser(ctx, id); err != nil {
		m.mu.Lock()
		m.identity = prev
		m.mu.Unlock()
		return fmt.Errorf("auth: sign in: %w", err)
	}

	slog.Info("user signed in", "user_id", id.ID)
	m.emit(id, true)
	return nil
}

func (m *Manager) ensureUser(ctx context.Context, id Identity) error {
	_, err := m.users.Lookup(ctx, id.ID)
	if !db.IsNotFound(err) {
		return err
	}

	_, err = m.users.Create(ctx, models.NewUser{ID: id.ID, Email: id.Email})
	if err == nil {
		slog.Info("user record created", "user_id", id.ID)
	}
	return err
}

// SignOut ends the session. Signing out while signed out does nothing.
func (m *Manager) SignOut() {
	m.mu.Lock()
	prev := m.identity
	m.identity = nil
	m.mu.Unlock()

	if prev == nil {
		return
	}
	slog.Info("user signed out", "user_id", prev.ID)
	m.emit(Identity{}, false)
}

// Identity returns the current identity. ok is false when nobody is signed
// in or the identity has expired.
func (m *Manager) Identity() (id Identity, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil || m.identity.Expired(m.now()) {
		return Identity{}, false
	}
	return *m.identity, true
}

// Token returns the access token of the current session, or "".
func (m *Manager) Token() string {
	id, ok := m.Identity()
	if !ok {
		return ""
	}
	return id.AccessToken
}

// User returns the signed-in user merged with the stored record, which is
// read through the shared cache. On a store failure the identity-only user
// is returned along with the error.
func (m *Manager) User(ctx context.Context) (User, error) {
	id, ok := m.Identity()
	if !ok {
		return User{}, ErrSignedOut
	}

	u := User{
		User:        models.User{ID: id.ID, Email: id.Email},
		AccessToken: id.AccessToken,
		ExpiresAt:   id.ExpiresAt,
	}

	record, err := m.users.Get(ctx, id.ID).Unwrap()
	if err != nil {
		return u, err
	}

	u.User = record
	if u.Email == "" {
		u.Email = id.Email
	}
	return u, nil
}

// Subscribe calls fn after every sign-in (ok true) and sign-out (ok false).
func (m *Manager) Subscribe(fn func(id Identity, ok bool)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	key := m.nextID
	m.subs[key] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, key)
		m.mu.Unlock()
	}
}

func (m *Manager) emit(id Identity, ok bool) {
	m.mu.Lock()
	fns := make([]func(Identity, bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(id, ok)
	}
}

// RequireUser reports whether someone is signed in. When nobody is, it
// replaces the current location with the sign-in page, passing the
// current location as ?next=.
func RequireUser(r *router.Router, m *Manager) bool {
	if _, ok := m.Identity(); ok {
		return true
	}

	next := r.State().Location.String()
	if err := r.Replace(SignInPath + "?next=" + url.QueryEscape(next)); err != nil {
		slog.Error("sign-in redirect failed", "next", next, "error", err)
	}
	return false
}
