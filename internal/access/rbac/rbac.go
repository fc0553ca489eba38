// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rbac implements the role and permission graph.

It owns the Role and Permission entities, their many-to-many associations
with principals, and the resolver that computes a principal's effective
permission set.

# Architecture

  - Store: pgx-backed persistence for the graph and its association tables.
  - Resolver: Pure read path computing effective grants (direct + role-derived).
  - Service: Mutation rules, including the protection of fixed and root entities.

The resolver never special-cases the root role: the bypass lives in
[access.Grants.IsRoot] and is applied only at enforcement points.
*/
package rbac

import "time"

// # Domain Entities

// Role is a named bundle of permissions grantable to users and applications.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Fixed marks seeded roles that must survive administrative cleanup.
	// A fixed role cannot be deleted; the role named "root" additionally
	// cannot be renamed.
	Fixed     bool      `json:"fixed"`
	CreatedAt time.Time `json:"created_at"`

	// Permissions is populated only on detail reads.
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is a named capability checked at enforcement points by exact
// string match. Names follow the "<Service> - <Entity> - <action>" convention.
type Permission struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Fixed marks seeded permissions. A fixed permission cannot be deleted
	// but, unlike roles, may still be renamed.
	Fixed     bool      `json:"fixed"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldPermissions = "permissions"
)

// # Permission Gates

// Gate names for the RBAC administration endpoints themselves.
const (
	PermRoleList         = "User - Role - list"
	PermRoleDetail       = "User - Role - detail"
	PermPermissionList   = "User - Permission - list"
	PermPermissionDetail = "User - Permission - detail"
)
