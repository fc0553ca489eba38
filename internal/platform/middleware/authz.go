// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the identity service.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
	"github.com/taibuivan/yomira-identity/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
)

// TokenDecoder verifies a bearer credential and returns its claims.
//
// # Why an interface?
//
// Defining TokenDecoder here decouples the middleware from the concrete
// [sec.TokenService], allowing mocks during unit testing.
type TokenDecoder interface {
	Decode(rawToken string) (*sec.Claims, error)
}

// PrincipalDirectory resolves verified claims into a live principal.
//
// The directory is what turns "this token is cryptographically valid" into
// "this token belongs to an existing, non-deleted account". A valid token
// whose subject has been removed must not authenticate.
type PrincipalDirectory interface {
	Resolve(ctx context.Context, claims *sec.Claims) (access.Principal, error)
}

// GrantSource resolves a principal's current authorization state.
type GrantSource interface {
	Grants(ctx context.Context, principal access.Principal) (access.Grants, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, decode the JWT and resolve its subject in the directory.
//  4. Inject [*sec.Claims] and [access.Principal] into the request context.
//
// # Parameters
//   - decoder: The TokenDecoder instance.
//   - directory: The PrincipalDirectory resolving claims to live accounts.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(decoder TokenDecoder, directory PrincipalDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			// The decoder strips the "Bearer " scheme itself, so the raw
			// header value is passed through unchanged.
			claims, err := decoder.Decode(authHeader)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 3. Directory Resolution ───────────────────────────────────────
			principal, err := directory.Resolve(request.Context(), claims)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Account no longer exists"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithClaims(request.Context(), claims)
			ctx = ctxutil.WithPrincipal(ctx, principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, ok := ctxutil.GetPrincipal(request.Context()); !ok {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequirePermissions blocks requests whose principal holds none of the named
// permissions.
//
// # Semantics
//
// The check is any-of: holding ONE of the listed permissions is sufficient.
// A principal whose grants include the root role bypasses the comparison
// entirely ([access.Grants.IsRoot]). It implies [RequireAuth].
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequirePermissions(source GrantSource, names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			grants, err := resolveGrants(writer, request, source)
			if err != nil {
				return
			}

			if !grants.HasAnyPermission(names...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireRoles blocks requests whose principal holds none of the named roles.
//
// Any-of semantics with the same root bypass as [RequirePermissions].
func RequireRoles(source GrantSource, names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			grants, err := resolveGrants(writer, request, source)
			if err != nil {
				return
			}

			if !grants.HasAnyRole(names...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient role"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// resolveGrants fetches the acting principal's grants, writing the error
// response itself when the request cannot proceed.
func resolveGrants(writer http.ResponseWriter, request *http.Request, source GrantSource) (access.Grants, error) {

	// ── 1. Authentication Check ───────────────────────────────────────────
	principal, ok := ctxutil.GetPrincipal(request.Context())
	if !ok {
		err := apperr.Unauthorized("Authentication required")
		respond.Error(writer, request, err)
		return access.Grants{}, err
	}

	// ── 2. Grant Resolution ───────────────────────────────────────────────
	grants, err := source.Grants(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return access.Grants{}, err
	}

	return grants, nil
}
