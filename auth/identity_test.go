// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueIdentity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := IssueIdentity("  Alice@Example.com ", "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("IssueIdentity() error = %v", err)
	}
	if id.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized address", id.Email)
	}
	if id.ID != UserID("alice@example.com", "secret") {
		t.Errorf("ID = %q, want UserID of the email", id.ID)
	}
	if id.AccessToken == "" {
		t.Error("AccessToken is empty")
	}
	if !id.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", id.ExpiresAt, now.Add(time.Hour))
	}

	again, err := IssueIdentity("alice@example.com", "secret", 0, now)
	if err != nil {
		t.Fatalf("IssueIdentity() error = %v", err)
	}
	if again.ID != id.ID {
		t.Error("same email produced different user ids")
	}
	if again.AccessToken == id.AccessToken {
		t.Error("two sign-ins shared an access token")
	}
	if !again.ExpiresAt.IsZero() {
		t.Error("zero ttl should not set an expiry")
	}
}

func TestIssueIdentity_InvalidEmail(t *testing.T) {
	for _, email := range []string{"", "alice", "@example.com", "alice@"} {
		t.Run(email, func(t *testing.T) {
			_, err := IssueIdentity(email, "secret", 0, time.Now())
			if !errors.Is(err, ErrInvalidEmail) {
				t.Errorf("IssueIdentity(%q) error = %v, want ErrInvalidEmail", email, err)
			}
		})
	}
}

func TestIdentityExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Identity{ID: "u", ExpiresAt: tt.expiresAt}
			if got := id.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserID(t *testing.T) {
	a := UserID("alice@example.com", "secret")
	if a != UserID("ALICE@example.com", "secret") {
		t.Error("UserID() should ignore email case")
	}
	if a == UserID("bob@example.com", "secret") {
		t.Error("UserID() produced same id for different emails")
	}
	if a == UserID("alice@example.com", "other") {
		t.Error("UserID() produced same id for different secrets")
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	// 24 bytes base64 encoded without padding = 32 chars
	if len(token) != 32 {
		t.Errorf("GenerateToken() length = %d, want 32", len(token))
	}

	other, _ := GenerateToken()
	if token == other {
		t.Error("GenerateToken() produced duplicate tokens (extremely unlikely)")
	}
}

func TestBase62Encode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"zero bytes", []byte{0, 0, 0, 0}, "0"},
		{"small value", []byte{0, 0, 0, 1}, "1"},
		{"base", []byte{0, 0, 0, 62}, "10"},
		{"max uint64", []byte{255, 255, 255, 255, 255, 255, 255, 255}, "lYGhA16ahyf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base62Encode(tt.input); got != tt.want {
				t.Errorf("base62Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}
