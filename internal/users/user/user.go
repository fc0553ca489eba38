// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package user implements the credential store behind every human principal.

It owns the User entity together with its Profile and Device satellites, the
soft-delete lifecycle, and the administrative management surface.

# Architecture

  - Store: pgx-backed persistence with a single soft-delete scope rule.
  - Service: Lifecycle rules (root-holder protection, cache upkeep) and
    grant-sync orchestration via the rbac package.
  - Handler: Permission-gated administrative REST endpoints.
*/
package user

import (
	"encoding/json"
	"time"
)

// # Domain Entities

// User is a human principal able to authenticate with phone or email.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	PasswordHash   string `json:"-"`
	Name           string `json:"name"`
	Lastname       string `json:"lastname"`
	SecondLastname string `json:"second_lastname"`

	// IsActive is informational onboarding state. An inactive user can
	// still authenticate; only soft deletion revokes access.
	IsActive bool `json:"is_active"`

	// AqID links the account to the external credit origination system.
	AqID *int64 `json:"aq_id"`

	// NewPass flags that the current password was set administratively
	// and should be rotated by the user.
	NewPass bool `json:"new_pass"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Profile and Devices are populated only on detail reads.
	Profile *Profile `json:"profile,omitempty"`
	Devices []Device `json:"devices,omitempty"`
}

// FullName returns the display name composed from the three name parts.
func (user *User) FullName() string {
	return user.Name + " " + user.Lastname + " " + user.SecondLastname
}

// Profile carries the KYC, address, and credit data attached to a user.
type Profile struct {
	ID     string `json:"-"`
	UserID string `json:"-"`

	// Identity
	RFC           string     `json:"rfc"`
	CURP          string     `json:"curp"`
	HomePhone     string     `json:"home_phone"`
	Birthday      *time.Time `json:"birthday"`
	EntityBirth   string     `json:"entity_birth"`
	Gender        string     `json:"gender"`
	Grade         string     `json:"grade"`
	MaritalStatus string     `json:"marital_status"`

	// Address
	Municipality         string `json:"municipality"`
	Street               string `json:"street"`
	ReferenceStreet      string `json:"reference_street"`
	ReferenceStreetOther string `json:"reference_street_other"`
	AdditionalReference  string `json:"additional_reference"`
	Exterior             string `json:"exterior"`
	Interior             string `json:"interior"`
	Neighborhood         string `json:"neighborhood"`
	Zip                  string `json:"zip"`
	Department           string `json:"department"`
	State                string `json:"state"`
	Country              string `json:"country"`

	// Economic situation
	MonthlyExpenditure float64 `json:"monthly_expenditure"`
	Income             float64 `json:"income"`
	IncomeFamily       float64 `json:"income_family"`
	CountHome          int     `json:"count_home"`
	CountIncomePeople  int     `json:"count_income_people"`
	CompanyName        string  `json:"company_name"`
	TypeActivity       string  `json:"type_activity"`
	Position           string  `json:"position"`
	TimeActivityYear   int     `json:"time_activity_year"`
	TimeActivityMonth  int     `json:"time_activity_month"`

	// PersonalReferences is an opaque JSON document managed by the client.
	PersonalReferences json.RawMessage `json:"personal_references,omitempty"`

	// Credit figures mirrored into the authorization cache.
	AvailableCredit float64 `json:"available_credit"`
	PaymentCapacity float64 `json:"payment_capacity"`
	SecondCredit    bool    `json:"second_credit"`

	// External system linkage
	AqID            string `json:"-"`
	KycPrescoringID *int64 `json:"kyc_prescoring_id"`
	PayID           string `json:"pay_id"`

	// KYC document URLs written by the upload endpoint.
	LegalIDFront   string `json:"legal_id_front"`
	LegalIDBack    string `json:"legal_id_back"`
	ProofOfAddress string `json:"proof_of_address"`
}

// Device is a mobile handset registered to a user account.
type Device struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	DeviceID   string    `json:"device_id"`
	Mark       string    `json:"mark"`
	Model      string    `json:"model"`
	Carrier    string    `json:"carrier"`
	OS         string    `json:"os"`
	NFC        bool      `json:"nfc"`
	AppVersion string    `json:"app_version"`
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultRole is assigned to self-registered users.
const DefaultRole = "shopper"

// # Field Identifiers

const (
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldPassword       = "password"
	FieldName           = "name"
	FieldLastname       = "lastname"
	FieldSecondLastname = "second_lastname"
	FieldRoles          = "roles"
	FieldPermissions    = "permissions"
)

// # Permission Gates

const (
	PermList           = "User - list"
	PermCreate         = "User - create"
	PermDetail         = "User - detail"
	PermUpdate         = "User - update"
	PermUpdatePassword = "User - update password"
	PermPermissions    = "User - permissions"
	PermRoles          = "User - roles"
	PermActivate       = "User - activate"
	PermSoftDelete     = "User - soft delete"
	PermRestore        = "User - restore"
	PermDelete         = "User - delete"
)
