// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Token lifetimes and the authorization cache taxonomy.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "yomira-identity"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// CredentialRateLimitRPS throttles the credential endpoints (login,
	// password reset) far below the general limit to slow brute force.
	CredentialRateLimitRPS = 1.0

	// CredentialRateLimitBurst is the burst allowance for credential endpoints.
	CredentialRateLimitBurst = 5

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Token Lifetimes

const (
	// DefaultAccessTokenTTL is the access token lifetime for server-issued tokens
	// outside of the interactive login flows (e.g. admin impersonation).
	DefaultAccessTokenTTL = 12 * time.Hour

	// DefaultRefreshTokenTTL pairs with [DefaultAccessTokenTTL].
	DefaultRefreshTokenTTL = 24 * time.Hour

	// LoginAccessTokenTTL is the access token lifetime for the interactive
	// login, registration, refresh, and password-reset flows. Mobile clients
	// stay signed in between sessions, so these are intentionally long.
	LoginAccessTokenTTL = 15 * 24 * time.Hour

	// LoginRefreshTokenTTL pairs with [LoginAccessTokenTTL].
	LoginRefreshTokenTTL = 20 * 24 * time.Hour

	// AppTokenTTL is the lifetime of machine-to-machine application tokens.
	// Apps hold a single long-lived credential rotated manually via the API.
	AppTokenTTL = 1576800000 * time.Second

	// SessionMarkerLength is the character length of the random session
	// marker embedded in every user token and persisted in the session ledger.
	SessionMarkerLength = 64

	// ResetCodeLength is the digit count of the password reset code.
	ResetCodeLength = 6

	// ResetCodeTTL is how long a password reset code remains usable.
	ResetCodeTTL = 5 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// CacheKeyPrefix namespaces every authorization cache entry. Other
	// services on the shared Redis read entries under this prefix, so it
	// must never change without coordinating with the consumers.
	CacheKeyPrefix = "ms-users-"
)
