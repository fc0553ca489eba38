// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/dberr"
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

const appColumns = `id, name, description, token, createdat, updatedat`

func (store *PostgresStore) Create(context context.Context, app *App) error {
	const query = `
		INSERT INTO users.app (id, name, description, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5)`

	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		app.ID, app.Name, app.Description, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Application name is already in use")
		}
		return fmt.Errorf("postgres_app_create_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) FindByID(context context.Context, id string) (*App, error) {
	query := fmt.Sprintf(`SELECT %s FROM users.app WHERE id = $1`, appColumns)

	app := App{}
	err := store.pool.QueryRow(context, query, id).Scan(
		&app.ID, &app.Name, &app.Description, &app.Token, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Application")
		}
		return nil, fmt.Errorf("postgres_app_find_failed: %w", err)
	}

	return &app, nil
}

func (store *PostgresStore) List(context context.Context, params pagination.Params, search string) ([]App, int, error) {
	const countQuery = `
		SELECT COUNT(*)
		FROM users.app
		WHERE ($1 = '' OR id ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')`

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM users.app
		WHERE ($1 = '' OR id ILIKE '%%' || $1 || '%%' OR name ILIKE '%%' || $1 || '%%')
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`, appColumns)

	total := 0
	if err := store.pool.QueryRow(context, countQuery, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_app_count_failed: %w", err)
	}

	rows, err := store.pool.Query(context, listQuery, search, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_app_list_failed: %w", err)
	}
	defer rows.Close()

	apps, err := scanApps(rows)
	if err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (store *PostgresStore) ListAll(context context.Context) ([]App, error) {
	query := fmt.Sprintf(`SELECT %s FROM users.app ORDER BY name`, appColumns)

	rows, err := store.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_app_list_all_failed: %w", err)
	}
	defer rows.Close()

	return scanApps(rows)
}

func (store *PostgresStore) Update(context context.Context, app *App) error {
	const query = `
		UPDATE users.app
		SET name = $2, description = $3, updatedat = $4
		WHERE id = $1`

	app.UpdatedAt = time.Now()

	tag, err := store.pool.Exec(context, query, app.ID, app.Name, app.Description, app.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Application name is already in use")
		}
		return fmt.Errorf("postgres_app_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Application")
	}

	return nil
}

func (store *PostgresStore) SetToken(context context.Context, id, token string) error {
	const query = `UPDATE users.app SET token = $2, updatedat = $3 WHERE id = $1`

	tag, err := store.pool.Exec(context, query, id, token, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_app_set_token_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Application")
	}

	return nil
}

func (store *PostgresStore) Delete(context context.Context, id string) error {
	tx, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_app_delete_begin_failed: %w", err)
	}
	defer func() { _ = tx.Rollback(context) }()

	for _, query := range []string{
		`DELETE FROM users.app_role WHERE appid = $1`,
		`DELETE FROM users.app_permission WHERE appid = $1`,
	} {
		if _, err := tx.Exec(context, query, id); err != nil {
			return fmt.Errorf("postgres_app_delete_grants_failed: %w", err)
		}
	}

	tag, err := tx.Exec(context, `DELETE FROM users.app WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres_app_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Application")
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_app_delete_commit_failed: %w", err)
	}

	return nil
}

func scanApps(rows pgx.Rows) ([]App, error) {
	apps := []App{}
	for rows.Next() {
		app := App{}
		err := rows.Scan(&app.ID, &app.Name, &app.Description, &app.Token,
			&app.CreatedAt, &app.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres_app_scan_failed: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_app_rows_failed: %w", err)
	}

	return apps, nil
}
