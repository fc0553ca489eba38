// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the authentication gateway of the platform.

It owns the interactive token flows (login, registration, refresh, logout),
the session ledger that ties every issued user token to a revocable row, and
the WhatsApp-based password reset flow. The package also provides the
principal directory and grant source consumed by the HTTP middleware.

# Sessions

Every user token embeds a random session marker. The ledger row keyed by
(user, marker) is what makes logout meaningful with stateless JWTs: the
cached authorization entry is dropped only once the user's last marker is
gone.
*/
package auth

import "time"

// Session is one ledger row backing an issued token pair.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Marker    string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session has passed its expiry.
func (session *Session) Expired(now time.Time) bool {
	return session.ExpiresAt.Before(now)
}

// ResetToken is one pending password reset code.
//
// The username column stores whatever identifier the user typed (phone or
// email), so the consume step can re-resolve the same account.
type ResetToken struct {
	ID        string
	Token     string
	Username  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the reset code has passed its expiry.
func (token *ResetToken) Expired(now time.Time) bool {
	return token.ExpiresAt.Before(now)
}

// # Field Identifiers

const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldToken    = "token"
)

// # Permission Gates

const (
	PermGenerateToken = "User - generate token"
	PermValidateEmail = "User - validate email"
)
