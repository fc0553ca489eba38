// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # Session Ledger

// SessionStore defines the persistence contract for the session ledger.
type SessionStore interface {

	/*
		Create persists a new ledger row for an issued token pair.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Storage failures
	*/
	Create(context context.Context, session *Session) error

	/*
		Delete removes the ledger row keyed by user and marker. A row that
		does not exist is not an error, so logout stays idempotent.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - marker: string

		Returns:
		  - error: Storage failures
	*/
	Delete(context context.Context, userID, marker string) error

	/*
		HasActiveSession reports whether the user still holds at least one
		non-expired ledger row. Expiry is evaluated at query time.

		Returns:
		  - bool: True when an active row remains
		  - error: Storage failures
	*/
	HasActiveSession(context context.Context, userID string) (bool, error)

	/*
		ActiveUserIDs returns the distinct IDs of every user holding a
		non-expired ledger row, for the cache reconciliation job.

		Returns:
		  - []string: Distinct user IDs
		  - error: Storage failures
	*/
	ActiveUserIDs(context context.Context) ([]string, error)

	/*
		DeleteExpired removes every expired ledger row. Expired rows are
		harmless (every reader checks expiry), so this exists only to keep
		the table small.

		Returns:
		  - int: Rows removed
		  - error: Storage failures
	*/
	DeleteExpired(context context.Context) (int, error)
}

// # Reset Codes

// ResetStore defines the persistence contract for password reset codes.
type ResetStore interface {

	// Create persists a new reset code row.
	Create(context context.Context, token *ResetToken) error

	// FindByToken returns the row holding the given code, or NotFound.
	FindByToken(context context.Context, token string) (*ResetToken, error)

	// FindByTokenAndUsername returns the row matching both the code and
	// the identifier it was requested for, or NotFound.
	FindByTokenAndUsername(context context.Context, token, username string) (*ResetToken, error)

	// Delete consumes a reset code row.
	Delete(context context.Context, id string) error
}
