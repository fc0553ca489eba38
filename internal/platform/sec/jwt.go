// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer behind small interfaces.
package sec

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
)

// bearerScheme is the credential prefix tolerated (and stripped) by [TokenService.Decode].
// The match is case-sensitive: clients must send exactly "Bearer <token>".
const bearerScheme = "Bearer "

// SessionClaims is the payload issued for user sessions. Sibling services
// decode these tokens without calling back into this service, so every field
// below is part of the public wire contract and is always emitted, zero
// values included. A fresh registration without a financial profile still
// produces available_credit, payment_capacity, and second_credit.
type SessionClaims struct {
	jwt.RegisteredClaims

	// ID is the user's UUID.
	ID string `json:"id"`

	// AqID is an external acquisition identifier carried through from the
	// user record; null when the account has none.
	AqID *string `json:"aq_id"`

	// Session is the random marker tying this token to a session ledger row.
	Session string `json:"session"`

	// Financial profile snapshot taken at issuance time.
	AvailableCredit float64 `json:"available_credit"`
	PaymentCapacity float64 `json:"payment_capacity"`
	SecondCredit    bool    `json:"second_credit"`

	// Roles is the role-name snapshot taken at issuance time, never null.
	Roles []string `json:"roles"`
}

// AppClaims is the minimal payload issued for machine principals.
type AppClaims struct {
	jwt.RegisteredClaims

	// ID is the application's UUID.
	ID string `json:"id"`
}

// Claims is the decode-side view of any token this service accepts. User
// tokens fill every field; application tokens leave everything but the ID
// zero.
type Claims struct {
	jwt.RegisteredClaims

	ID              string   `json:"id"`
	AqID            *string  `json:"aq_id"`
	Session         string   `json:"session"`
	AvailableCredit float64  `json:"available_credit"`
	PaymentCapacity float64  `json:"payment_capacity"`
	SecondCredit    bool     `json:"second_credit"`
	Roles           []string `json:"roles"`
}

// IsApp reports whether the claims belong to a machine principal.
// Application tokens never carry a session marker.
func (c *Claims) IsApp() bool { return c.Session == "" }

// TokenPair bundles the access and refresh tokens returned by login flows.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService signs and verifies JWTs using HS256 with a shared symmetric key.
//
// # Why symmetric?
//
// Every service in the platform shares APP_SECRET_KEY and validates tokens
// locally. There is no third-party verifier that would justify an
// asymmetric keypair.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService from the shared signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

/*
IssuePair signs the same session claims twice with independent lifetimes,
producing an access/refresh token pair. Both tokens share the session marker
so a refresh resolves to the same ledger row. Each expiry is stamped as
now + lifetime; a nil role slice is emitted as an empty array.

Parameters:
  - claims: SessionClaims (ExpiresAt is overwritten)
  - accessTTL: time.Duration
  - refreshTTL: time.Duration

Returns:
  - TokenPair: Access and refresh tokens
  - error: Signing failures
*/
func (service *TokenService) IssuePair(claims SessionClaims, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	if claims.Roles == nil {
		claims.Roles = []string{}
	}

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(accessTTL))
	accessToken, err := service.sign(claims)
	if err != nil {
		return TokenPair{}, err
	}

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(refreshTTL))
	refreshToken, err := service.sign(claims)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Token: accessToken, RefreshToken: refreshToken}, nil
}

/*
IssueApp signs application claims with an expiry of now + timeToLive.

Parameters:
  - claims: AppClaims (ExpiresAt is overwritten)
  - timeToLive: time.Duration

Returns:
  - string: Signed compact JWT
  - error: Signing failures
*/
func (service *TokenService) IssueApp(claims AppClaims, timeToLive time.Duration) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(timeToLive))
	return service.sign(claims)
}

func (service *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec_token_sign_failed: %w", err)
	}

	return signedToken, nil
}

/*
Decode verifies a compact JWT and returns its claims.

The optional "Bearer " scheme prefix is stripped before parsing, so callers
may pass either the raw token or the full Authorization header value.

Parameters:
  - rawToken: string

Returns:
  - *Claims: Verified payload
  - error: apperr.Unauthorized on any signature, format, or expiry failure
*/
func (service *TokenService) Decode(rawToken string) (*Claims, error) {
	rawToken = strings.TrimPrefix(rawToken, bearerScheme)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	return claims, nil
}
