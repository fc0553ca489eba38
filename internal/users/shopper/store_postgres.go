// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shopper

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const unrelatedPredicate = `
	u.deletedat IS NULL
	AND COALESCE(p.paymentcapacity, 0) = 0
	AND ($1 = '' OR u.phone = $1)
	AND ($2 = '' OR u.email = $2)
	AND ($3 = '' OR p.curp = $3)`

func (store *PostgresStore) ListUnrelated(context context.Context, params pagination.Params, filter UnrelatedFilter) ([]user.User, int, error) {
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM users.account u
		LEFT JOIN users.profile p ON p.userid = u.id
		WHERE %s`, unrelatedPredicate)

	listQuery := fmt.Sprintf(`
		SELECT u.id, u.email, u.phone, u.name, u.lastname, u.secondlastname,
		       u.isactive, u.aqid, u.createdat, u.updatedat,
		       COALESCE(p.curp, ''), COALESCE(p.rfc, ''),
		       COALESCE(p.availablecredit, 0), COALESCE(p.paymentcapacity, 0)
		FROM users.account u
		LEFT JOIN users.profile p ON p.userid = u.id
		WHERE %s
		ORDER BY u.createdat DESC
		LIMIT $4 OFFSET $5`, unrelatedPredicate)

	total := 0
	err := store.pool.QueryRow(context, countQuery, filter.Phone, filter.Email, filter.CURP).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_shopper_unrelated_count_failed: %w", err)
	}

	rows, err := store.pool.Query(context, listQuery,
		filter.Phone, filter.Email, filter.CURP, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_shopper_unrelated_list_failed: %w", err)
	}
	defer rows.Close()

	shoppers := []user.User{}
	for rows.Next() {
		entry := user.User{Profile: &user.Profile{}}
		err := rows.Scan(
			&entry.ID, &entry.Email, &entry.Phone, &entry.Name, &entry.Lastname,
			&entry.SecondLastname, &entry.IsActive, &entry.AqID,
			&entry.CreatedAt, &entry.UpdatedAt,
			&entry.Profile.CURP, &entry.Profile.RFC,
			&entry.Profile.AvailableCredit, &entry.Profile.PaymentCapacity,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_shopper_unrelated_scan_failed: %w", err)
		}
		entry.Profile.UserID = entry.ID
		shoppers = append(shoppers, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_shopper_unrelated_rows_failed: %w", err)
	}

	return shoppers, total, nil
}
