// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package shopper implements the consumer-facing side of the user domain.

A shopper is a regular user account carrying the default role plus a KYC
profile with address, economic situation, and credit figures. This package
owns self-registration, profile maintenance, credit updates pushed by the
origination system, and identity document uploads.
*/
package shopper

import (
	"encoding/json"
	"time"
)

// # Permission Gates

const (
	PermCreate        = "User - Shopper - create"
	PermList          = "User - Shopper - list"
	PermDetail        = "User - Shopper - detail"
	PermUpdate        = "User - Shopper - update"
	PermUpdatePayment = "User - Shopper - update payment"
	PermUpdateProfile = "User - Shopper - update profile"
	PermUploadFiles   = "User - Shopper - upload files"
)

// RegisterInput holds the data accepted at shopper self-registration.
type RegisterInput struct {
	Email          string
	Phone          string
	Password       string
	Name           string
	Lastname       string
	SecondLastname string

	// Optional profile seed captured during onboarding.
	Profile *ProfileInput
}

// ProfileInput carries allow-listed profile changes. Nil fields are left
// untouched so the same type serves both PUT and PATCH semantics.
type ProfileInput struct {
	RFC           *string    `json:"rfc"`
	CURP          *string    `json:"curp"`
	HomePhone     *string    `json:"home_phone"`
	Birthday      *time.Time `json:"birthday"`
	EntityBirth   *string    `json:"entity_birth"`
	Gender        *string    `json:"gender"`
	Grade         *string    `json:"grade"`
	MaritalStatus *string    `json:"marital_status"`

	Municipality         *string `json:"municipality"`
	Street               *string `json:"street"`
	ReferenceStreet      *string `json:"reference_street"`
	ReferenceStreetOther *string `json:"reference_street_other"`
	AdditionalReference  *string `json:"additional_reference"`
	Exterior             *string `json:"exterior"`
	Interior             *string `json:"interior"`
	Neighborhood         *string `json:"neighborhood"`
	Zip                  *string `json:"zip"`
	Department           *string `json:"department"`
	State                *string `json:"state"`
	Country              *string `json:"country"`

	MonthlyExpenditure *float64 `json:"monthly_expenditure"`
	Income             *float64 `json:"income"`
	IncomeFamily       *float64 `json:"income_family"`
	CountHome          *int     `json:"count_home"`
	CountIncomePeople  *int     `json:"count_income_people"`
	CompanyName        *string  `json:"company_name"`
	TypeActivity       *string  `json:"type_activity"`
	Position           *string  `json:"position"`
	TimeActivityYear   *int     `json:"time_activity_year"`
	TimeActivityMonth  *int     `json:"time_activity_month"`

	PersonalReferences json.RawMessage `json:"personal_references"`
}

// CreditInput carries credit figures pushed by the origination system. Nil
// fields are left untouched.
type CreditInput struct {
	AvailableCredit *float64 `json:"available_credit"`
	PaymentCapacity *float64 `json:"payment_capacity"`
	SecondCredit    *bool    `json:"second_credit"`
	AqID            *string  `json:"aq_id"`
	KycPrescoringID *int64   `json:"kyc_prescoring_id"`
	PayID           *string  `json:"pay_id"`
}

// UnrelatedFilter narrows the unrelated shopper listing. All filters are
// exact matches.
type UnrelatedFilter struct {
	Phone string
	Email string
	CURP  string
}

// # Document Fields

// Multipart form field names accepted by the document upload endpoint. Each
// maps to one URL column on the profile.
const (
	DocLegalIDFront   = "legal_id_front"
	DocLegalIDBack    = "legal_id_back"
	DocProofOfAddress = "proof_of_address"
)
