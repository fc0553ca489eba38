// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"context"

	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Scope controls whether reads include soft-deleted accounts.
type Scope int

const (
	// ScopeActive excludes soft-deleted accounts. This is the default for
	// every read path, including authentication.
	ScopeActive Scope = iota
	// ScopeWithDeleted includes soft-deleted accounts, for restoration and
	// hard deletion.
	ScopeWithDeleted
	// ScopeDeletedOnly returns only soft-deleted accounts (trash listing).
	ScopeDeletedOnly
)

// Store defines the persistence contract for users and their satellites.
type Store interface {
	/*
		Create persists a new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email or phone, storage errors
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists the allow-listed identity fields (phone, email, name,
		lastname, second_lastname) of an existing user.
	*/
	Update(context context.Context, user *User) error

	/*
		FindByID retrieves a user within the given soft-delete scope.

		Returns:
		  - *User: Hydrated entity (without Profile or Devices)
		  - error: apperr.NotFound or storage errors
	*/
	FindByID(context context.Context, id string, scope Scope) (*User, error)

	/*
		FindByAqID retrieves a user by its external origination system ID.
	*/
	FindByAqID(context context.Context, aqID int64) (*User, error)

	/*
		FindByPhoneOrEmail retrieves the first active user whose phone or
		email matches the given identifier.
	*/
	FindByPhoneOrEmail(context context.Context, identifier string) (*User, error)

	/*
		FindByPhoneAndEmail retrieves the active user matching both contact
		attributes exactly.
	*/
	FindByPhoneAndEmail(context context.Context, phone, email string) (*User, error)

	/*
		List returns one page of users within the scope, newest first. The
		search term matches id, email, phone, name, lastname, and the
		profile's CURP and RFC.

		Returns:
		  - []User: Page of users
		  - int: Total matching count
		  - error: Storage errors
	*/
	List(context context.Context, params pagination.Params, search string, scope Scope) ([]User, int, error)

	/*
		UpdatePassword stores a new password hash and raises the new_pass flag.
	*/
	UpdatePassword(context context.Context, id, passwordHash string, newPass bool) error

	/*
		SetActive toggles the onboarding activation flag.
	*/
	SetActive(context context.Context, id string, active bool) error

	/*
		SoftDelete stamps deleted_at on an active account.
	*/
	SoftDelete(context context.Context, id string) error

	/*
		Restore clears deleted_at on a soft-deleted account.
	*/
	Restore(context context.Context, id string) error

	/*
		HardDelete permanently removes the account together with its profile,
		devices, sessions, and grant assignments.
	*/
	HardDelete(context context.Context, id string) error

	/*
		FindProfile retrieves the profile row of a user, or apperr.NotFound
		when the user has none.
	*/
	FindProfile(context context.Context, userID string) (*Profile, error)

	/*
		UpsertProfile creates or replaces the profile attached to a user.
	*/
	UpsertProfile(context context.Context, profile *Profile) error

	/*
		CreateDevice registers a handset under a user account.
	*/
	CreateDevice(context context.Context, device *Device) error

	/*
		ListDevices returns every handset registered to a user, newest first.
	*/
	ListDevices(context context.Context, userID string) ([]Device, error)
}
