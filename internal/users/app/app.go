// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app manages machine principals.

An application is a sibling service that calls this platform with a
long-lived token instead of interactive credentials. Applications carry
roles and permissions exactly like users, minus the session ledger and the
financial profile.
*/
package app

import "time"

// App is a machine principal registered with the platform.
type App struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Token is the currently issued credential. Generating a new token
	// overwrites it, which revokes nothing: previously issued tokens stay
	// valid until their expiry. The column exists so operators can recover
	// a lost credential without reissuing.
	Token *string `json:"token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldRoles       = "roles"
	FieldPermissions = "permissions"
)

// # Permission Gates

const (
	PermList          = "User - App - list"
	PermCreate        = "User - App - create"
	PermDetail        = "User - App - detail"
	PermUpdate        = "User - App - update"
	PermDelete        = "User - App - delete"
	PermGenerateToken = "User - App - generate token"
	PermPermissions   = "User - App - permissions"
	PermRoles         = "User - App - roles"
)
