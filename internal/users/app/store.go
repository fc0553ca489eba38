// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app

import (
	"context"

	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Store defines the persistence contract for applications.
type Store interface {
	// Create persists a new application. A taken name maps to Conflict.
	Create(context context.Context, app *App) error

	// FindByID returns an application or NotFound.
	FindByID(context context.Context, id string) (*App, error)

	// List returns one page of applications, the search term matching ID
	// and name, plus the total row count.
	List(context context.Context, params pagination.Params, search string) ([]App, int, error)

	// ListAll returns every application ordered by name, for the cache
	// reconciliation job.
	ListAll(context context.Context) ([]App, error)

	// Update persists name and description changes.
	Update(context context.Context, app *App) error

	// SetToken overwrites the stored credential.
	SetToken(context context.Context, id, token string) error

	// Delete removes the application and its grant assignments in one
	// transaction.
	Delete(context context.Context, id string) error
}
