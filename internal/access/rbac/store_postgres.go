// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementation of the RBAC graph store.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, unique violations) are mapped to
// domain-friendly [apperr.AppError] types so storage details never leak.
package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-identity/internal/access"
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

// principalRoleTable returns the role association table and FK column for a principal kind.
func principalRoleTable(principal access.Principal) (table, column string) {
	if principal.Kind == access.KindApp {
		return "users.app_role", "appid"
	}
	return "users.account_role", "accountid"
}

// principalPermissionTable returns the direct-permission association table and
// FK column for a principal kind.
func principalPermissionTable(principal access.Principal) (table, column string) {
	if principal.Kind == access.KindApp {
		return "users.app_permission", "appid"
	}
	return "users.account_permission", "accountid"
}

// # Roles

/*
CreateRole persists a new role record into the users.role table.

Parameters:
  - context: context.Context
  - role: *Role

Returns:
  - error: apperr.Conflict on duplicate name, otherwise execution errors
*/
func (store *PostgresStore) CreateRole(context context.Context, role *Role) error {
	const query = `
		INSERT INTO users.role (id, name, fixed, createdat)
		VALUES ($1, $2, $3, $4)`

	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(context, query, role.ID, role.Name, role.Fixed, role.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Role name is already in use")
		}
		return fmt.Errorf("postgres_rbac_create_role_failed: %w", err)
	}

	return nil
}

/*
FindRoleByID retrieves a role by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Role: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresStore) FindRoleByID(context context.Context, id string) (*Role, error) {
	const query = `
		SELECT id, name, fixed, createdat
		FROM users.role
		WHERE id = $1`

	role := &Role{}
	err := store.pool.QueryRow(context, query, id).Scan(&role.ID, &role.Name, &role.Fixed, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_rbac_find_role_failed: %w", err)
	}

	return role, nil
}

/*
FindRoleByName retrieves a role by its unique name.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *Role: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresStore) FindRoleByName(context context.Context, name string) (*Role, error) {
	const query = `
		SELECT id, name, fixed, createdat
		FROM users.role
		WHERE name = $1`

	role := &Role{}
	err := store.pool.QueryRow(context, query, name).Scan(&role.ID, &role.Name, &role.Fixed, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_rbac_find_role_by_name_failed: %w", err)
	}

	return role, nil
}

/*
ListRoles returns one page of roles, newest first, with an optional
case-insensitive name filter.

Parameters:
  - context: context.Context
  - params: pagination.Params
  - search: string

Returns:
  - []Role: Page of roles
  - int: Total matching count
  - error: Execution errors
*/
func (store *PostgresStore) ListRoles(context context.Context, params pagination.Params, search string) ([]Role, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM users.role
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`
	const listQuery = `
		SELECT id, name, fixed, createdat
		FROM users.role
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	total := 0
	if err := store.pool.QueryRow(context, countQuery, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_count_roles_failed: %w", err)
	}

	rows, err := store.pool.Query(context, listQuery, search, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_list_roles_failed: %w", err)
	}
	defer rows.Close()

	roles, err := scanRoles(rows)
	if err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

/*
ListAllRoles returns every role ordered by name, for non-paginated pickers.
*/
func (store *PostgresStore) ListAllRoles(context context.Context) ([]Role, error) {
	const query = `
		SELECT id, name, fixed, createdat
		FROM users.role
		ORDER BY name ASC`

	rows, err := store.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_list_all_roles_failed: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

/*
UpdateRole persists a role's new name.

Parameters:
  - context: context.Context
  - role: *Role

Returns:
  - error: apperr.Conflict on duplicate name, otherwise execution errors
*/
func (store *PostgresStore) UpdateRole(context context.Context, role *Role) error {
	const query = `UPDATE users.role SET name = $2 WHERE id = $1`

	_, err := store.pool.Exec(context, query, role.ID, role.Name)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Role name is already in use")
		}
		return fmt.Errorf("postgres_rbac_update_role_failed: %w", err)
	}

	return nil
}

/*
DeleteRole removes a role together with its permission attachments and every
principal assignment, in a single transaction.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution errors
*/
func (store *PostgresStore) DeleteRole(context context.Context, id string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_rbac_delete_role_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	statements := []string{
		`DELETE FROM users.role_permission WHERE roleid = $1`,
		`DELETE FROM users.account_role WHERE roleid = $1`,
		`DELETE FROM users.app_role WHERE roleid = $1`,
		`DELETE FROM users.role WHERE id = $1`,
	}
	for _, statement := range statements {
		if _, err := transaction.Exec(context, statement, id); err != nil {
			return fmt.Errorf("postgres_rbac_delete_role_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_rbac_delete_role_commit_failed: %w", err)
	}

	return nil
}

// # Permissions

/*
CreatePermission persists a new permission record into the users.permission table.

Parameters:
  - context: context.Context
  - permission: *Permission

Returns:
  - error: apperr.Conflict on duplicate name, otherwise execution errors
*/
func (store *PostgresStore) CreatePermission(context context.Context, permission *Permission) error {
	const query = `
		INSERT INTO users.permission (id, name, fixed, createdat)
		VALUES ($1, $2, $3, $4)`

	if permission.CreatedAt.IsZero() {
		permission.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(context, query, permission.ID, permission.Name, permission.Fixed, permission.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Permission name is already in use")
		}
		return fmt.Errorf("postgres_rbac_create_permission_failed: %w", err)
	}

	return nil
}

/*
FindPermissionByID retrieves a permission by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Permission: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresStore) FindPermissionByID(context context.Context, id string) (*Permission, error) {
	const query = `
		SELECT id, name, fixed, createdat
		FROM users.permission
		WHERE id = $1`

	permission := &Permission{}
	err := store.pool.QueryRow(context, query, id).Scan(
		&permission.ID, &permission.Name, &permission.Fixed, &permission.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Permission")
		}
		return nil, fmt.Errorf("postgres_rbac_find_permission_failed: %w", err)
	}

	return permission, nil
}

/*
ListPermissions returns one page of permissions, newest first, with an
optional case-insensitive name filter.
*/
func (store *PostgresStore) ListPermissions(context context.Context, params pagination.Params, search string) ([]Permission, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM users.permission
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`
	const listQuery = `
		SELECT id, name, fixed, createdat
		FROM users.permission
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	total := 0
	if err := store.pool.QueryRow(context, countQuery, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_count_permissions_failed: %w", err)
	}

	rows, err := store.pool.Query(context, listQuery, search, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_rbac_list_permissions_failed: %w", err)
	}
	defer rows.Close()

	permissions, err := scanPermissions(rows)
	if err != nil {
		return nil, 0, err
	}

	return permissions, total, nil
}

/*
ListAllPermissions returns every permission ordered by name.
*/
func (store *PostgresStore) ListAllPermissions(context context.Context) ([]Permission, error) {
	const query = `
		SELECT id, name, fixed, createdat
		FROM users.permission
		ORDER BY name ASC`

	rows, err := store.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_list_all_permissions_failed: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

/*
UpdatePermission persists a permission's new name.

Parameters:
  - context: context.Context
  - permission: *Permission

Returns:
  - error: apperr.Conflict on duplicate name, otherwise execution errors
*/
func (store *PostgresStore) UpdatePermission(context context.Context, permission *Permission) error {
	const query = `UPDATE users.permission SET name = $2 WHERE id = $1`

	_, err := store.pool.Exec(context, query, permission.ID, permission.Name)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Permission name is already in use")
		}
		return fmt.Errorf("postgres_rbac_update_permission_failed: %w", err)
	}

	return nil
}

/*
DeletePermission removes a permission together with every role attachment and
direct principal grant referencing it, in a single transaction.
*/
func (store *PostgresStore) DeletePermission(context context.Context, id string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_rbac_delete_permission_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	statements := []string{
		`DELETE FROM users.role_permission WHERE permissionid = $1`,
		`DELETE FROM users.account_permission WHERE permissionid = $1`,
		`DELETE FROM users.app_permission WHERE permissionid = $1`,
		`DELETE FROM users.permission WHERE id = $1`,
	}
	for _, statement := range statements {
		if _, err := transaction.Exec(context, statement, id); err != nil {
			return fmt.Errorf("postgres_rbac_delete_permission_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_rbac_delete_permission_commit_failed: %w", err)
	}

	return nil
}

// # Associations

/*
ListRolePermissions returns the permissions attached to a role, ordered by name.
*/
func (store *PostgresStore) ListRolePermissions(context context.Context, roleID string) ([]Permission, error) {
	const query = `
		SELECT p.id, p.name, p.fixed, p.createdat
		FROM users.permission p
		JOIN users.role_permission rp ON rp.permissionid = p.id
		WHERE rp.roleid = $1
		ORDER BY p.name ASC`

	rows, err := store.pool.Query(context, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_list_role_permissions_failed: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

/*
SyncRolePermissions replaces a role's permission set with exactly the given
IDs: delete-all then re-insert inside one transaction.

Parameters:
  - context: context.Context
  - roleID: string
  - permissionIDs: []string

Returns:
  - error: Execution errors
*/
func (store *PostgresStore) SyncRolePermissions(context context.Context, roleID string, permissionIDs []string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_rbac_sync_role_permissions_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	if _, err := transaction.Exec(context, `DELETE FROM users.role_permission WHERE roleid = $1`, roleID); err != nil {
		return fmt.Errorf("postgres_rbac_sync_role_permissions_clear_failed: %w", err)
	}

	for _, permissionID := range permissionIDs {
		_, err := transaction.Exec(context,
			`INSERT INTO users.role_permission (roleid, permissionid) VALUES ($1, $2)`,
			roleID, permissionID)
		if err != nil {
			return fmt.Errorf("postgres_rbac_sync_role_permissions_insert_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_rbac_sync_role_permissions_commit_failed: %w", err)
	}

	return nil
}

/*
ListPrincipalRoles returns the roles assigned to a user or application.
*/
func (store *PostgresStore) ListPrincipalRoles(context context.Context, principal access.Principal) ([]Role, error) {
	table, column := principalRoleTable(principal)
	query := fmt.Sprintf(`
		SELECT r.id, r.name, r.fixed, r.createdat
		FROM users.role r
		JOIN %s pr ON pr.roleid = r.id
		WHERE pr.%s = $1
		ORDER BY r.name ASC`, table, column)

	rows, err := store.pool.Query(context, query, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_list_principal_roles_failed: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

/*
ListPrincipalPermissions returns the direct permission grants of a user or
application, excluding role-derived permissions.
*/
func (store *PostgresStore) ListPrincipalPermissions(context context.Context, principal access.Principal) ([]Permission, error) {
	table, column := principalPermissionTable(principal)
	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.fixed, p.createdat
		FROM users.permission p
		JOIN %s pp ON pp.permissionid = p.id
		WHERE pp.%s = $1
		ORDER BY p.name ASC`, table, column)

	rows, err := store.pool.Query(context, query, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_list_principal_permissions_failed: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

/*
SyncPrincipalRoles replaces a principal's role set with exactly the given IDs.
*/
func (store *PostgresStore) SyncPrincipalRoles(context context.Context, principal access.Principal, roleIDs []string) error {
	table, column := principalRoleTable(principal)

	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_rbac_sync_principal_roles_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	clearQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column)
	if _, err := transaction.Exec(context, clearQuery, principal.ID); err != nil {
		return fmt.Errorf("postgres_rbac_sync_principal_roles_clear_failed: %w", err)
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (%s, roleid) VALUES ($1, $2)`, table, column)
	for _, roleID := range roleIDs {
		if _, err := transaction.Exec(context, insertQuery, principal.ID, roleID); err != nil {
			return fmt.Errorf("postgres_rbac_sync_principal_roles_insert_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_rbac_sync_principal_roles_commit_failed: %w", err)
	}

	return nil
}

/*
SyncPrincipalPermissions replaces a principal's direct permission set with
exactly the given IDs.
*/
func (store *PostgresStore) SyncPrincipalPermissions(context context.Context, principal access.Principal, permissionIDs []string) error {
	table, column := principalPermissionTable(principal)

	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_rbac_sync_principal_permissions_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	clearQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column)
	if _, err := transaction.Exec(context, clearQuery, principal.ID); err != nil {
		return fmt.Errorf("postgres_rbac_sync_principal_permissions_clear_failed: %w", err)
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (%s, permissionid) VALUES ($1, $2)`, table, column)
	for _, permissionID := range permissionIDs {
		if _, err := transaction.Exec(context, insertQuery, principal.ID, permissionID); err != nil {
			return fmt.Errorf("postgres_rbac_sync_principal_permissions_insert_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_rbac_sync_principal_permissions_commit_failed: %w", err)
	}

	return nil
}

// # Row Scanning

func scanRoles(rows pgx.Rows) ([]Role, error) {
	roles := []Role{}
	for rows.Next() {
		role := Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Fixed, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_rbac_scan_role_failed: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_rbac_roles_rows_failed: %w", err)
	}
	return roles, nil
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	permissions := []Permission{}
	for rows.Next() {
		permission := Permission{}
		if err := rows.Scan(&permission.ID, &permission.Name, &permission.Fixed, &permission.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_rbac_scan_permission_failed: %w", err)
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_rbac_permissions_rows_failed: %w", err)
	}
	return permissions, nil
}
