// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidEmail = errors.New("invalid email address")

// Identity is a signed-in user as reported by the identity provider.
type Identity struct {
	ID          string
	Email       string
	AccessToken string
	ExpiresAt   time.Time // zero means no expiry
}

// Expired reports whether the identity's token has expired at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// IssueIdentity creates a local identity for email, for running without a
// hosted identity provider. The user id is derived from the email so the
// same address signs in as the same user every time.
func IssueIdentity(email, secret string, ttl time.Duration, now time.Time) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	token, err := GenerateToken()
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		ID:          UserID(email, secret),
		Email:       email,
		AccessToken: token,
	}
	if ttl > 0 {
		id.ExpiresAt = now.Add(ttl)
	}
	return id, nil
}

// UserID derives a stable user id from an email address.
func UserID(email, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.ToLower(email)))
	sum := h.Sum(nil)

	// Take first 8 bytes for a shorter id
	return base62Encode(sum[:8])
}

// GenerateToken creates a random opaque access token
func GenerateToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}
