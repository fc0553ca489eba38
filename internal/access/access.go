// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access defines the principal model shared by the authorization layers.

It is a dependency-free leaf: the middleware, the RBAC graph, the cache
writer, and the domain services all agree on what a principal is by importing
this package, without importing each other.

Concepts:

  - Principal: Who is acting — a human user or a machine application.
  - Grants: What the principal holds — role names and effective permission names.
  - Root: The single superuser role that bypasses every permission check.
*/
package access

// RoleRoot is the name of the superuser role. A principal holding it passes
// every permission and role gate without consulting its grant set.
const RoleRoot = "root"

// # Principals

// Kind discriminates the two principal types served by this system.
type Kind string

const (
	// KindUser is a human account authenticated with credentials.
	KindUser Kind = "user"

	// KindApp is a machine principal authenticated with a long-lived token.
	KindApp Kind = "app"
)

// Principal identifies an authenticated actor.
type Principal struct {
	Kind Kind
	ID   string
}

// User builds a user principal.
func User(id string) Principal { return Principal{Kind: KindUser, ID: id} }

// App builds an application principal.
func App(id string) Principal { return Principal{Kind: KindApp, ID: id} }

// # Grants

// Grants is the resolved authorization state of a principal: its role names
// and its effective permission names (direct grants plus role-derived ones).
type Grants struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// IsRoot reports whether the grant set includes the superuser role.
//
// This is the only place the root bypass is decided. Enforcement points call
// IsRoot before any permission comparison; resolvers never expand root into
// a synthetic "all permissions" list.
func (g Grants) IsRoot() bool {
	for _, role := range g.Roles {
		if role == RoleRoot {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the grant set includes at least one of the
// named permissions. Root bypasses the comparison entirely.
func (g Grants) HasAnyPermission(names ...string) bool {
	if g.IsRoot() {
		return true
	}
	for _, required := range names {
		for _, held := range g.Permissions {
			if held == required {
				return true
			}
		}
	}
	return false
}

// HasAnyRole reports whether the grant set includes at least one of the named
// roles. Root bypasses the comparison entirely.
func (g Grants) HasAnyRole(names ...string) bool {
	if g.IsRoot() {
		return true
	}
	for _, required := range names {
		for _, held := range g.Roles {
			if held == required {
				return true
			}
		}
	}
	return false
}
