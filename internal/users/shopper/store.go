// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shopper

import (
	"context"

	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Store defines the shopper-specific queries not covered by the user store.
type Store interface {
	/*
		ListUnrelated returns active shoppers that have no credit line yet,
		meaning their payment capacity is still zero.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params
		  - filter: UnrelatedFilter (exact-match narrowing)

		Returns:
		  - []user.User: One page, profile attached
		  - int: Total row count for the filter
		  - error: Storage errors
	*/
	ListUnrelated(context context.Context, params pagination.Params, filter UnrelatedFilter) ([]user.User, int, error)
}
