// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
)

// PostgresSessionStore implements the [SessionStore] interface using pgx.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore creates a new PostgreSQL session ledger.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

func (store *PostgresSessionStore) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (id, userid, token, expiresat, createdat)
		VALUES ($1, $2, $3, $4, $5)`

	session.CreatedAt = time.Now()

	_, err := store.pool.Exec(context, query,
		session.ID, session.UserID, session.Marker, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres_session_create_failed: %w", err)
	}

	return nil
}

func (store *PostgresSessionStore) Delete(context context.Context, userID, marker string) error {
	const query = `DELETE FROM users.session WHERE userid = $1 AND token = $2`

	if _, err := store.pool.Exec(context, query, userID, marker); err != nil {
		return fmt.Errorf("postgres_session_delete_failed: %w", err)
	}

	return nil
}

func (store *PostgresSessionStore) HasActiveSession(context context.Context, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM users.session
			WHERE userid = $1 AND expiresat > now()
		)`

	active := false
	if err := store.pool.QueryRow(context, query, userID).Scan(&active); err != nil {
		return false, fmt.Errorf("postgres_session_active_failed: %w", err)
	}

	return active, nil
}

func (store *PostgresSessionStore) ActiveUserIDs(context context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT userid FROM users.session
		WHERE expiresat > now()`

	rows, err := store.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_active_users_failed: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		id := ""
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres_session_active_users_scan_failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_active_users_rows_failed: %w", err)
	}

	return ids, nil
}

func (store *PostgresSessionStore) DeleteExpired(context context.Context) (int, error) {
	const query = `DELETE FROM users.session WHERE expiresat <= now()`

	tag, err := store.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_delete_expired_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// PostgresResetStore implements the [ResetStore] interface using pgx.
type PostgresResetStore struct {
	pool *pgxpool.Pool
}

// NewPostgresResetStore creates a new PostgreSQL reset code store.
func NewPostgresResetStore(pool *pgxpool.Pool) *PostgresResetStore {
	return &PostgresResetStore{pool: pool}
}

const resetColumns = `id, token, username, expiresat, createdat`

func (store *PostgresResetStore) Create(context context.Context, token *ResetToken) error {
	const query = `
		INSERT INTO users.reset_password (id, token, username, expiresat, createdat)
		VALUES ($1, $2, $3, $4, $5)`

	token.CreatedAt = time.Now()

	_, err := store.pool.Exec(context, query,
		token.ID, token.Token, token.Username, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres_reset_create_failed: %w", err)
	}

	return nil
}

func (store *PostgresResetStore) FindByToken(context context.Context, token string) (*ResetToken, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.reset_password
		WHERE token = $1
		ORDER BY createdat DESC
		LIMIT 1`, resetColumns)

	return store.queryOne(context, query, token)
}

func (store *PostgresResetStore) FindByTokenAndUsername(context context.Context, token, username string) (*ResetToken, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.reset_password
		WHERE token = $1 AND username = $2
		ORDER BY createdat DESC
		LIMIT 1`, resetColumns)

	return store.queryOne(context, query, token, username)
}

func (store *PostgresResetStore) Delete(context context.Context, id string) error {
	const query = `DELETE FROM users.reset_password WHERE id = $1`

	if _, err := store.pool.Exec(context, query, id); err != nil {
		return fmt.Errorf("postgres_reset_delete_failed: %w", err)
	}

	return nil
}

func (store *PostgresResetStore) queryOne(context context.Context, query string, args ...any) (*ResetToken, error) {
	token := ResetToken{}
	err := store.pool.QueryRow(context, query, args...).Scan(
		&token.ID, &token.Token, &token.Username, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reset token")
		}
		return nil, fmt.Errorf("postgres_reset_find_failed: %w", err)
	}

	return &token, nil
}
