// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"

	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/users/shopper"
	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/uuid"
)

// Service implements the self-service use cases for the authenticated user.
type Service struct {
	users     *user.Service
	userStore user.Store
	shoppers  *shopper.Service
}

// NewService constructs a new account [Service].
func NewService(users *user.Service, userStore user.Store, shoppers *shopper.Service) *Service {
	return &Service{users: users, userStore: userStore, shoppers: shoppers}
}

// Me returns the authenticated user with profile and devices attached.
func (service *Service) Me(context context.Context, userID string) (*user.User, error) {
	return service.users.Get(context, userID, user.ScopeActive)
}

// UpdateProfile merges profile fields for the authenticated user and returns
// the refreshed entity.
func (service *Service) UpdateProfile(context context.Context, userID string, input shopper.ProfileInput) (*user.User, error) {
	if _, err := service.shoppers.UpdateProfile(context, userID, input); err != nil {
		return nil, err
	}

	return service.users.Get(context, userID, user.ScopeActive)
}

// UpdateIdentity applies allow-listed identity changes for the authenticated
// user.
func (service *Service) UpdateIdentity(context context.Context, userID string, input user.UpdateInput) (*user.User, error) {
	if _, err := service.users.Update(context, userID, input); err != nil {
		return nil, err
	}

	return service.users.Get(context, userID, user.ScopeActive)
}

/*
UpdatePassword rotates the authenticated user's password.

Description: A self-service rotation clears the new-pass flag. The flag is
raised only by administrative resets, where the holder is expected to rotate
on next use.
*/
func (service *Service) UpdatePassword(context context.Context, userID, password string) error {
	return service.users.UpdatePassword(context, userID, password, false)
}

// Permissions returns the authenticated user's effective permission set,
// direct grants plus role-derived ones.
func (service *Service) Permissions(context context.Context, userID string) ([]rbac.Permission, error) {
	sets, err := service.users.Permissions(context, userID)
	if err != nil {
		return nil, err
	}

	return sets.RolesPermissions, nil
}

// Roles returns the authenticated user's role assignments.
func (service *Service) Roles(context context.Context, userID string) ([]rbac.Role, error) {
	return service.users.Roles(context, userID)
}

// Devices returns the handsets registered by the authenticated user.
func (service *Service) Devices(context context.Context, userID string) ([]user.Device, error) {
	return service.userStore.ListDevices(context, userID)
}

// RegisterDevice records a new handset for the authenticated user.
func (service *Service) RegisterDevice(context context.Context, userID string, input DeviceInput) (*user.Device, error) {
	device := &user.Device{
		// Time-sortable ID to prevent PG index fragmentation.
		ID:         uuid.New(),
		UserID:     userID,
		DeviceID:   input.DeviceID,
		Mark:       input.Mark,
		Model:      input.Model,
		Carrier:    input.Carrier,
		OS:         input.OS,
		NFC:        input.NFC,
		AppVersion: input.AppVersion,
	}

	if err := service.userStore.CreateDevice(context, device); err != nil {
		return nil, err
	}

	return device, nil
}
