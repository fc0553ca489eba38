// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shopper

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/storage"
	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Service implements the shopper onboarding and profile use cases.
type Service struct {
	users     *user.Service
	userStore user.Store
	store     Store
	uploader  *storage.Uploader
}

// NewService constructs a new shopper [Service].
func NewService(users *user.Service, userStore user.Store, store Store, uploader *storage.Uploader) *Service {
	return &Service{
		users:     users,
		userStore: userStore,
		store:     store,
		uploader:  uploader,
	}
}

// # Registration & Reads

/*
Register enrolls a new shopper.

Description: The account is created with the default shopper role. When the
input carries profile data, a profile row is seeded in the same call so the
onboarding client gets a complete entity back.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *user.User: Created entity with profile attached
  - error: Conflict (email/phone taken) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*user.User, error) {
	created, err := service.users.Create(context, user.CreateInput{
		Email:          input.Email,
		Phone:          input.Phone,
		Password:       input.Password,
		Name:           input.Name,
		Lastname:       input.Lastname,
		SecondLastname: input.SecondLastname,
	})
	if err != nil {
		return nil, err
	}

	if input.Profile != nil {
		profile := &user.Profile{UserID: created.ID}
		applyProfileInput(profile, *input.Profile)
		if err := service.userStore.UpsertProfile(context, profile); err != nil {
			return nil, err
		}
		created.Profile = profile
	}

	return created, nil
}

// Get returns a shopper with its profile and devices.
func (service *Service) Get(context context.Context, id string) (*user.User, error) {
	return service.users.Get(context, id, user.ScopeActive)
}

// GetByIdentifier returns a shopper by phone or email.
func (service *Service) GetByIdentifier(context context.Context, identifier string) (*user.User, error) {
	shopper, err := service.userStore.FindByPhoneOrEmail(context, identifier)
	if err != nil {
		return nil, err
	}
	return service.users.Get(context, shopper.ID, user.ScopeActive)
}

// ListUnrelated returns shoppers that have no credit line yet.
func (service *Service) ListUnrelated(context context.Context, params pagination.Params, filter UnrelatedFilter) ([]user.User, int, error) {
	return service.store.ListUnrelated(context, params, filter)
}

// # Profile Maintenance

// UpdateIdentity applies allow-listed identity changes through the user
// service so the cached snapshot stays in sync.
func (service *Service) UpdateIdentity(context context.Context, id string, input user.UpdateInput) (*user.User, error) {
	return service.users.Update(context, id, input)
}

/*
UpdateProfile merges the given fields into the shopper's profile, creating
the row when none exists yet.

Returns:
  - *user.Profile: The profile after the merge
  - error: NotFound (unknown shopper), Conflict (RFC/CURP taken), storage errors
*/
func (service *Service) UpdateProfile(context context.Context, id string, input ProfileInput) (*user.Profile, error) {
	shopper, err := service.userStore.FindByID(context, id, user.ScopeActive)
	if err != nil {
		return nil, err
	}

	profile, err := service.userStore.FindProfile(context, shopper.ID)
	if err != nil {
		profile = &user.Profile{UserID: shopper.ID}
	}

	applyProfileInput(profile, input)

	if err := service.userStore.UpsertProfile(context, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

/*
UpdateCredit merges credit figures pushed by the origination system.

Description: Credit figures are part of the cached authorization snapshot, so
a successful merge refreshes the entry of any currently cached shopper. A
shopper that never logged in stays uncached.
*/
func (service *Service) UpdateCredit(context context.Context, id string, input CreditInput) (*user.Profile, error) {
	shopper, err := service.userStore.FindByID(context, id, user.ScopeActive)
	if err != nil {
		return nil, err
	}

	profile, err := service.userStore.FindProfile(context, shopper.ID)
	if err != nil {
		profile = &user.Profile{UserID: shopper.ID}
	}

	if input.AvailableCredit != nil {
		profile.AvailableCredit = *input.AvailableCredit
	}
	if input.PaymentCapacity != nil {
		profile.PaymentCapacity = *input.PaymentCapacity
	}
	if input.SecondCredit != nil {
		profile.SecondCredit = *input.SecondCredit
	}
	if input.AqID != nil {
		profile.AqID = *input.AqID
	}
	if input.KycPrescoringID != nil {
		profile.KycPrescoringID = input.KycPrescoringID
	}
	if input.PayID != nil {
		profile.PayID = *input.PayID
	}

	if err := service.userStore.UpsertProfile(context, profile); err != nil {
		return nil, err
	}

	shopper.Profile = profile
	_ = service.users.WriteCache(context, shopper, false)

	return profile, nil
}

// # Documents

// Document is one identity file received for upload.
type Document struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

/*
UploadDocuments stores the given identity documents and persists their
object URLs on the shopper's profile.

Parameters:
  - context: context.Context
  - id: string (shopper ID)
  - documents: []Document (accepted fields: legal_id_front, legal_id_back, proof_of_address)

Returns:
  - *user.Profile: Profile carrying the new document URLs
  - error: ServiceUnavailable (uploads disabled), NotFound, Unprocessable
    (unknown field), upload or storage errors
*/
func (service *Service) UploadDocuments(context context.Context, id string, documents []Document) (*user.Profile, error) {
	// The uploader is nil when no object storage bucket is configured.
	if service.uploader == nil {
		return nil, apperr.ServiceUnavailable("Document uploads are not enabled")
	}

	shopper, err := service.userStore.FindByID(context, id, user.ScopeActive)
	if err != nil {
		return nil, err
	}

	profile, err := service.userStore.FindProfile(context, shopper.ID)
	if err != nil {
		profile = &user.Profile{UserID: shopper.ID}
	}

	for _, document := range documents {
		target, err := documentTarget(profile, document.Field)
		if err != nil {
			return nil, err
		}

		key := fmt.Sprintf("shoppers/%s/%s%s", shopper.ID, document.Field, extension(document.Filename))
		url, err := service.uploader.Upload(context, key, document.Content, document.ContentType)
		if err != nil {
			return nil, err
		}
		*target = url
	}

	if err := service.userStore.UpsertProfile(context, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

func documentTarget(profile *user.Profile, field string) (*string, error) {
	switch field {
	case DocLegalIDFront:
		return &profile.LegalIDFront, nil
	case DocLegalIDBack:
		return &profile.LegalIDBack, nil
	case DocProofOfAddress:
		return &profile.ProofOfAddress, nil
	default:
		return nil, apperr.Unprocessable("Unknown document field: " + field)
	}
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}

// # Merging

func applyProfileInput(profile *user.Profile, input ProfileInput) {
	if input.RFC != nil {
		profile.RFC = *input.RFC
	}
	if input.CURP != nil {
		profile.CURP = *input.CURP
	}
	if input.HomePhone != nil {
		profile.HomePhone = *input.HomePhone
	}
	if input.Birthday != nil {
		profile.Birthday = input.Birthday
	}
	if input.EntityBirth != nil {
		profile.EntityBirth = *input.EntityBirth
	}
	if input.Gender != nil {
		profile.Gender = *input.Gender
	}
	if input.Grade != nil {
		profile.Grade = *input.Grade
	}
	if input.MaritalStatus != nil {
		profile.MaritalStatus = *input.MaritalStatus
	}
	if input.Municipality != nil {
		profile.Municipality = *input.Municipality
	}
	if input.Street != nil {
		profile.Street = *input.Street
	}
	if input.ReferenceStreet != nil {
		profile.ReferenceStreet = *input.ReferenceStreet
	}
	if input.ReferenceStreetOther != nil {
		profile.ReferenceStreetOther = *input.ReferenceStreetOther
	}
	if input.AdditionalReference != nil {
		profile.AdditionalReference = *input.AdditionalReference
	}
	if input.Exterior != nil {
		profile.Exterior = *input.Exterior
	}
	if input.Interior != nil {
		profile.Interior = *input.Interior
	}
	if input.Neighborhood != nil {
		profile.Neighborhood = *input.Neighborhood
	}
	if input.Zip != nil {
		profile.Zip = *input.Zip
	}
	if input.Department != nil {
		profile.Department = *input.Department
	}
	if input.State != nil {
		profile.State = *input.State
	}
	if input.Country != nil {
		profile.Country = *input.Country
	}
	if input.MonthlyExpenditure != nil {
		profile.MonthlyExpenditure = *input.MonthlyExpenditure
	}
	if input.Income != nil {
		profile.Income = *input.Income
	}
	if input.IncomeFamily != nil {
		profile.IncomeFamily = *input.IncomeFamily
	}
	if input.CountHome != nil {
		profile.CountHome = *input.CountHome
	}
	if input.CountIncomePeople != nil {
		profile.CountIncomePeople = *input.CountIncomePeople
	}
	if input.CompanyName != nil {
		profile.CompanyName = *input.CompanyName
	}
	if input.TypeActivity != nil {
		profile.TypeActivity = *input.TypeActivity
	}
	if input.Position != nil {
		profile.Position = *input.Position
	}
	if input.TimeActivityYear != nil {
		profile.TimeActivityYear = *input.TimeActivityYear
	}
	if input.TimeActivityMonth != nil {
		profile.TimeActivityMonth = *input.TimeActivityMonth
	}
	if len(input.PersonalReferences) > 0 {
		profile.PersonalReferences = input.PersonalReferences
	}
}
