// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/app"
	"github.com/taibuivan/yomira-identity/internal/users/user"
)

// Directory resolves verified claims into live principals for the
// authentication middleware.
type Directory struct {
	users user.Store
	apps  app.Store
}

// NewDirectory constructs a new [Directory].
func NewDirectory(users user.Store, apps app.Store) *Directory {
	return &Directory{users: users, apps: apps}
}

/*
Resolve maps claims to an existing principal.

Description: A cryptographically valid token is not enough. The subject must
still exist, and soft-deleted users do not. The user table is consulted
first and the app table is the fallback; the two tables share a UUID
keyspace so an ID never matches both.

Returns:
  - access.Principal: The live principal
  - error: Unauthorized when the subject is gone
*/
func (directory *Directory) Resolve(context context.Context, claims *sec.Claims) (access.Principal, error) {
	if _, err := directory.users.FindByID(context, claims.ID, user.ScopeActive); err == nil {
		return access.User(claims.ID), nil
	}

	if _, err := directory.apps.FindByID(context, claims.ID); err == nil {
		return access.App(claims.ID), nil
	}

	return access.Principal{}, apperr.Unauthorized("Account no longer exists")
}

// CachedGrants serves authorization state from the write-through cache,
// falling back to the grant graph when the entry is missing or Redis is
// unavailable.
type CachedGrants struct {
	cache    *authcache.Writer
	resolver *rbac.Resolver
}

// NewCachedGrants constructs a new [CachedGrants] source.
func NewCachedGrants(cache *authcache.Writer, resolver *rbac.Resolver) *CachedGrants {
	return &CachedGrants{cache: cache, resolver: resolver}
}

// Grants implements the middleware's grant source contract.
func (grants *CachedGrants) Grants(context context.Context, principal access.Principal) (access.Grants, error) {
	entry, err := grants.cache.Read(context, principal.ID)
	if err == nil {
		return access.Grants{Roles: entry.Roles, Permissions: entry.Permissions}, nil
	}

	// Cache miss and Redis failure take the same path. Authorization must
	// not depend on cache availability.
	return grants.resolver.Grants(context, principal)
}
