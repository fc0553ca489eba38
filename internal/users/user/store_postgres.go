// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

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
	"github.com/taibuivan/yomira-identity/pkg/uuid"
)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `
	id, email, phone, passwordhash, name, lastname, secondlastname,
	isactive, aqid, newpass, deletedat, createdat, updatedat`

// scopePredicate returns the soft-delete predicate for a scope, against the
// given (optionally aliased) column.
func scopePredicate(scope Scope, column string) string {
	switch scope {
	case ScopeWithDeleted:
		return "TRUE"
	case ScopeDeletedOnly:
		return column + " IS NOT NULL"
	default:
		return column + " IS NULL"
	}
}

func mapUniqueViolation(err error) error {
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Email or phone is already registered")
	}
	return nil
}

func (store *PostgresStore) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, phone, passwordhash, name, lastname, secondlastname,
			isactive, aqid, newpass, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Name,
		user.Lastname,
		user.SecondLastname,
		user.IsActive,
		user.AqID,
		user.NewPass,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_user_create_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET email = $2, phone = $3, name = $4, lastname = $5,
		    secondlastname = $6, updatedat = $7
		WHERE id = $1`

	user.UpdatedAt = time.Now()

	_, err := store.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.Phone,
		user.Name,
		user.Lastname,
		user.SecondLastname,
		user.UpdatedAt,
	)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_user_update_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) FindByID(context context.Context, id string, scope Scope) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.account
		WHERE id = $1 AND %s`, userColumns, scopePredicate(scope, "deletedat"))

	return store.queryOne(context, query, id)
}

func (store *PostgresStore) FindByAqID(context context.Context, aqID int64) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.account
		WHERE aqid = $1 AND deletedat IS NULL`, userColumns)

	return store.queryOne(context, query, aqID)
}

func (store *PostgresStore) FindByPhoneOrEmail(context context.Context, identifier string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.account
		WHERE (phone = $1 OR email = $1) AND deletedat IS NULL`, userColumns)

	return store.queryOne(context, query, identifier)
}

func (store *PostgresStore) FindByPhoneAndEmail(context context.Context, phone, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.account
		WHERE phone = $1 AND email = $2 AND deletedat IS NULL`, userColumns)

	return store.queryOne(context, query, phone, email)
}

func (store *PostgresStore) List(context context.Context, params pagination.Params, search string, scope Scope) ([]User, int, error) {
	predicate := scopePredicate(scope, "u.deletedat")

	// The search term also matches the profile's tax identifiers, so the
	// listing joins the profile row when one exists.
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM users.account u
		LEFT JOIN users.profile p ON p.userid = u.id
		WHERE %s AND ($1 = '' OR
			u.id ILIKE '%%' || $1 || '%%' OR
			u.email ILIKE '%%' || $1 || '%%' OR
			u.phone ILIKE '%%' || $1 || '%%' OR
			u.name ILIKE '%%' || $1 || '%%' OR
			u.lastname ILIKE '%%' || $1 || '%%' OR
			p.curp ILIKE '%%' || $1 || '%%' OR
			p.rfc ILIKE '%%' || $1 || '%%')`, predicate)

	listQuery := fmt.Sprintf(`
		SELECT u.id, u.email, u.phone, u.passwordhash, u.name, u.lastname,
		       u.secondlastname, u.isactive, u.aqid, u.newpass, u.deletedat,
		       u.createdat, u.updatedat
		FROM users.account u
		LEFT JOIN users.profile p ON p.userid = u.id
		WHERE %s AND ($1 = '' OR
			u.id ILIKE '%%' || $1 || '%%' OR
			u.email ILIKE '%%' || $1 || '%%' OR
			u.phone ILIKE '%%' || $1 || '%%' OR
			u.name ILIKE '%%' || $1 || '%%' OR
			u.lastname ILIKE '%%' || $1 || '%%' OR
			p.curp ILIKE '%%' || $1 || '%%' OR
			p.rfc ILIKE '%%' || $1 || '%%')
		ORDER BY u.createdat DESC
		LIMIT $2 OFFSET $3`, predicate)

	total := 0
	if err := store.pool.QueryRow(context, countQuery, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_count_failed: %w", err)
	}

	rows, err := store.pool.Query(context, listQuery, search, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_list_failed: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user := User{}
		if err := scanUser(rows, &user); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_list_rows_failed: %w", err)
	}

	return users, total, nil
}

func (store *PostgresStore) UpdatePassword(context context.Context, id, passwordHash string, newPass bool) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, newpass = $3, updatedat = $4
		WHERE id = $1`

	_, err := store.pool.Exec(context, query, id, passwordHash, newPass, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_update_password_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) SetActive(context context.Context, id string, active bool) error {
	const query = `
		UPDATE users.account
		SET isactive = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := store.pool.Exec(context, query, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_set_active_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) SoftDelete(context context.Context, id string) error {
	const query = `
		UPDATE users.account
		SET deletedat = $2, updatedat = $2
		WHERE id = $1 AND deletedat IS NULL`

	_, err := store.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_soft_delete_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) Restore(context context.Context, id string) error {
	const query = `
		UPDATE users.account
		SET deletedat = NULL, updatedat = $2
		WHERE id = $1 AND deletedat IS NOT NULL`

	_, err := store.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_restore_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) HardDelete(context context.Context, id string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_user_hard_delete_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	// Grant assignments and the session ledger have no FK cascade on
	// purpose, so they are cleared explicitly.
	statements := []string{
		`DELETE FROM users.account_role WHERE accountid = $1`,
		`DELETE FROM users.account_permission WHERE accountid = $1`,
		`DELETE FROM users.session WHERE userid = $1`,
		`DELETE FROM users.device WHERE userid = $1`,
		`DELETE FROM users.profile WHERE userid = $1`,
		`DELETE FROM users.account WHERE id = $1`,
	}
	for _, statement := range statements {
		if _, err := transaction.Exec(context, statement, id); err != nil {
			return fmt.Errorf("postgres_user_hard_delete_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_user_hard_delete_commit_failed: %w", err)
	}

	return nil
}

// # Profile

const profileColumns = `
	id, userid, rfc, curp, homephone, birthday, entitybirth, gender, grade,
	maritalstatus, municipality, street, referencestreet, referencestreetother,
	additionalreference, exterior, interior, neighborhood, zip, department,
	state, country, monthlyexpenditure, income, incomefamily, counthome,
	countincomepeople, companyname, typeactivity, position, timeactivityyear,
	timeactivitymonth, personalreferences, availablecredit, paymentcapacity,
	secondcredit, aqid, kycprescoringid, payid, legalidfront, legalidback,
	proofofaddress`

func (store *PostgresStore) FindProfile(context context.Context, userID string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM users.profile WHERE userid = $1`, profileColumns)

	profile := &Profile{}
	err := store.pool.QueryRow(context, query, userID).Scan(
		&profile.ID, &profile.UserID, &profile.RFC, &profile.CURP,
		&profile.HomePhone, &profile.Birthday, &profile.EntityBirth,
		&profile.Gender, &profile.Grade, &profile.MaritalStatus,
		&profile.Municipality, &profile.Street, &profile.ReferenceStreet,
		&profile.ReferenceStreetOther, &profile.AdditionalReference,
		&profile.Exterior, &profile.Interior, &profile.Neighborhood,
		&profile.Zip, &profile.Department, &profile.State, &profile.Country,
		&profile.MonthlyExpenditure, &profile.Income, &profile.IncomeFamily,
		&profile.CountHome, &profile.CountIncomePeople, &profile.CompanyName,
		&profile.TypeActivity, &profile.Position, &profile.TimeActivityYear,
		&profile.TimeActivityMonth, &profile.PersonalReferences,
		&profile.AvailableCredit, &profile.PaymentCapacity,
		&profile.SecondCredit, &profile.AqID, &profile.KycPrescoringID,
		&profile.PayID, &profile.LegalIDFront, &profile.LegalIDBack,
		&profile.ProofOfAddress,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Profile")
		}
		return nil, fmt.Errorf("postgres_profile_find_failed: %w", err)
	}

	return profile, nil
}

func (store *PostgresStore) UpsertProfile(context context.Context, profile *Profile) error {
	query := fmt.Sprintf(`
		INSERT INTO users.profile (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38,
		        $39, $40, $41, $42)
		ON CONFLICT (userid) DO UPDATE SET
			rfc = EXCLUDED.rfc, curp = EXCLUDED.curp,
			homephone = EXCLUDED.homephone, birthday = EXCLUDED.birthday,
			entitybirth = EXCLUDED.entitybirth, gender = EXCLUDED.gender,
			grade = EXCLUDED.grade, maritalstatus = EXCLUDED.maritalstatus,
			municipality = EXCLUDED.municipality, street = EXCLUDED.street,
			referencestreet = EXCLUDED.referencestreet,
			referencestreetother = EXCLUDED.referencestreetother,
			additionalreference = EXCLUDED.additionalreference,
			exterior = EXCLUDED.exterior, interior = EXCLUDED.interior,
			neighborhood = EXCLUDED.neighborhood, zip = EXCLUDED.zip,
			department = EXCLUDED.department, state = EXCLUDED.state,
			country = EXCLUDED.country,
			monthlyexpenditure = EXCLUDED.monthlyexpenditure,
			income = EXCLUDED.income, incomefamily = EXCLUDED.incomefamily,
			counthome = EXCLUDED.counthome,
			countincomepeople = EXCLUDED.countincomepeople,
			companyname = EXCLUDED.companyname,
			typeactivity = EXCLUDED.typeactivity, position = EXCLUDED.position,
			timeactivityyear = EXCLUDED.timeactivityyear,
			timeactivitymonth = EXCLUDED.timeactivitymonth,
			personalreferences = EXCLUDED.personalreferences,
			availablecredit = EXCLUDED.availablecredit,
			paymentcapacity = EXCLUDED.paymentcapacity,
			secondcredit = EXCLUDED.secondcredit, aqid = EXCLUDED.aqid,
			kycprescoringid = EXCLUDED.kycprescoringid, payid = EXCLUDED.payid,
			legalidfront = EXCLUDED.legalidfront,
			legalidback = EXCLUDED.legalidback,
			proofofaddress = EXCLUDED.proofofaddress`, profileColumns)

	if profile.ID == "" {
		profile.ID = uuid.New()
	}

	_, err := store.pool.Exec(context, query,
		profile.ID, profile.UserID, profile.RFC, profile.CURP,
		profile.HomePhone, profile.Birthday, profile.EntityBirth,
		profile.Gender, profile.Grade, profile.MaritalStatus,
		profile.Municipality, profile.Street, profile.ReferenceStreet,
		profile.ReferenceStreetOther, profile.AdditionalReference,
		profile.Exterior, profile.Interior, profile.Neighborhood,
		profile.Zip, profile.Department, profile.State, profile.Country,
		profile.MonthlyExpenditure, profile.Income, profile.IncomeFamily,
		profile.CountHome, profile.CountIncomePeople, profile.CompanyName,
		profile.TypeActivity, profile.Position, profile.TimeActivityYear,
		profile.TimeActivityMonth, profile.PersonalReferences,
		profile.AvailableCredit, profile.PaymentCapacity,
		profile.SecondCredit, profile.AqID, profile.KycPrescoringID,
		profile.PayID, profile.LegalIDFront, profile.LegalIDBack,
		profile.ProofOfAddress,
	)
	if err != nil {
		if conflict := mapProfileUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_profile_upsert_failed: %w", err)
	}

	return nil
}

func mapProfileUniqueViolation(err error) error {
	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("RFC or CURP is already registered")
	}
	return nil
}

// # Devices

func (store *PostgresStore) CreateDevice(context context.Context, device *Device) error {
	const query = `
		INSERT INTO users.device (
			id, userid, deviceid, mark, model, carrier, os, nfc, appversion, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(context, query,
		device.ID, device.UserID, device.DeviceID, device.Mark, device.Model,
		device.Carrier, device.OS, device.NFC, device.AppVersion, device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_device_create_failed: %w", err)
	}

	return nil
}

func (store *PostgresStore) ListDevices(context context.Context, userID string) ([]Device, error) {
	const query = `
		SELECT id, userid, deviceid, mark, model, carrier, os, nfc, appversion, createdat
		FROM users.device
		WHERE userid = $1
		ORDER BY createdat DESC`

	rows, err := store.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_device_list_failed: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		device := Device{}
		err := rows.Scan(
			&device.ID, &device.UserID, &device.DeviceID, &device.Mark,
			&device.Model, &device.Carrier, &device.OS, &device.NFC,
			&device.AppVersion, &device.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_device_scan_failed: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_device_rows_failed: %w", err)
	}

	return devices, nil
}

// # Helpers

func (store *PostgresStore) queryOne(context context.Context, query string, args ...interface{}) (*User, error) {
	user := &User{}
	row := store.pool.QueryRow(context, query, args...)
	if err := scanUser(row, user); err != nil {
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner, user *User) error {
	err := row.Scan(
		&user.ID, &user.Email, &user.Phone, &user.PasswordHash,
		&user.Name, &user.Lastname, &user.SecondLastname, &user.IsActive,
		&user.AqID, &user.NewPass, &user.DeletedAt, &user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("postgres_user_scan_failed: %w", err)
	}
	return nil
}
