// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/shopper"
	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/uuid"
)

// Notifier delivers password reset codes out of band.
type Notifier interface {
	SendResetCode(context context.Context, phone, code string) error
}

// Service implements the authentication gateway use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to credential checks,
// session issuance, or the reset flow must be reviewed by the security team.
type Service struct {
	users     *user.Service
	userStore user.Store
	shoppers  *shopper.Service
	sessions  SessionStore
	resets    ResetStore
	tokens    *sec.TokenService
	notifier  Notifier
	cache     *authcache.Writer
}

// NewService constructs a new authentication [Service].
func NewService(
	users *user.Service,
	userStore user.Store,
	shoppers *shopper.Service,
	sessions SessionStore,
	resets ResetStore,
	tokens *sec.TokenService,
	notifier Notifier,
	cache *authcache.Writer,
) *Service {
	return &Service{
		users:     users,
		userStore: userStore,
		shoppers:  shoppers,
		sessions:  sessions,
		resets:    resets,
		tokens:    tokens,
		notifier:  notifier,
		cache:     cache,
	}
}

// # Token Issuance

/*
issueSession mints a token pair for an account and records the login.

Description: The claims snapshot the account's roles and financial profile
at issuance time. A ledger row keyed by the embedded session marker is
persisted with the access-token lifetime, and the authorization cache entry
is force-written so sibling services see the fresh grant state immediately.
*/
func (service *Service) issueSession(context context.Context, account *user.User, accessTTL, refreshTTL time.Duration) (sec.TokenPair, error) {
	marker, err := sec.SessionMarker(constants.SessionMarkerLength)
	if err != nil {
		return sec.TokenPair{}, err
	}

	entry, err := service.users.CacheEntry(context, account)
	if err != nil {
		return sec.TokenPair{}, err
	}

	claims := sec.SessionClaims{
		ID:      account.ID,
		Session: marker,
		Roles:   entry.Roles,
	}
	if account.AqID != nil {
		aqID := strconv.FormatInt(*account.AqID, 10)
		claims.AqID = &aqID
	}
	if entry.Profile != nil {
		claims.AvailableCredit = entry.Profile.AvailableCredit
		claims.PaymentCapacity = entry.Profile.PaymentCapacity
		claims.SecondCredit = entry.Profile.SecondCredit
	}

	pair, err := service.tokens.IssuePair(claims, accessTTL, refreshTTL)
	if err != nil {
		return sec.TokenPair{}, err
	}

	session := &Session{
		// Time-sortable ID to prevent PG index fragmentation.
		ID:        uuid.New(),
		UserID:    account.ID,
		Marker:    marker,
		ExpiresAt: time.Now().Add(accessTTL),
	}
	if err := service.sessions.Create(context, session); err != nil {
		return sec.TokenPair{}, err
	}

	_ = service.cache.WriteUser(context, entry, true)

	return pair, nil
}

// # Interactive Flows

/*
Login authenticates a user by phone or email plus password.

Description: Unknown identifier and wrong password produce the same generic
error, so the endpoint cannot be used to probe which accounts exist.

Parameters:
  - context: context.Context
  - identifier: string (phone or email)
  - password: string

Returns:
  - sec.TokenPair: Signed access and refresh tokens
  - error: InvalidCredentials or storage errors
*/
func (service *Service) Login(context context.Context, identifier, password string) (sec.TokenPair, error) {
	account, err := service.userStore.FindByPhoneOrEmail(context, identifier)
	if err != nil {
		return sec.TokenPair{}, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return sec.TokenPair{}, apperr.InvalidCredentials()
	}

	return service.issueSession(context, account,
		constants.LoginAccessTokenTTL, constants.LoginRefreshTokenTTL)
}

/*
Register enrolls a new shopper and signs them in atomically from the
client's point of view.

Returns:
  - sec.TokenPair: Tokens for the freshly created account
  - error: Conflict (email/phone taken) or storage errors
*/
func (service *Service) Register(context context.Context, input shopper.RegisterInput) (sec.TokenPair, error) {
	account, err := service.shoppers.Register(context, input)
	if err != nil {
		return sec.TokenPair{}, err
	}

	return service.issueSession(context, account,
		constants.LoginAccessTokenTTL, constants.LoginRefreshTokenTTL)
}

/*
Refresh issues a fresh token pair for the authenticated user.

Description: Refresh does not consume the previous session row. The old pair
stays valid until its own expiry, matching mobile clients that refresh
opportunistically on several devices.
*/
func (service *Service) Refresh(context context.Context, claims *sec.Claims) (sec.TokenPair, error) {
	account, err := service.userStore.FindByID(context, claims.ID, user.ScopeActive)
	if err != nil {
		return sec.TokenPair{}, apperr.Unauthorized("Account no longer exists")
	}

	return service.issueSession(context, account,
		constants.LoginAccessTokenTTL, constants.LoginRefreshTokenTTL)
}

/*
Logout removes the session ledger row behind the presented token.

Description: The cached authorization entry is dropped only when no other
active session remains, so a user signed in on two devices keeps
authorization data until the last logout.
*/
func (service *Service) Logout(context context.Context, claims *sec.Claims) error {
	if err := service.sessions.Delete(context, claims.ID, claims.Session); err != nil {
		return err
	}

	active, err := service.sessions.HasActiveSession(context, claims.ID)
	if err != nil {
		return err
	}
	if !active {
		_ = service.cache.Delete(context, claims.ID)
	}

	return nil
}

/*
GenerateToken issues a token pair for another account, looked up by the
exact phone and email combination.

Description: This is the supervised impersonation path used by support
tooling. The issued pair uses the shorter non-interactive lifetimes.
*/
func (service *Service) GenerateToken(context context.Context, phone, email string) (sec.TokenPair, error) {
	account, err := service.userStore.FindByPhoneAndEmail(context, phone, email)
	if err != nil {
		return sec.TokenPair{}, err
	}

	return service.issueSession(context, account,
		constants.DefaultAccessTokenTTL, constants.DefaultRefreshTokenTTL)
}

// EmailIdentity is the reduced account view returned by ValidateEmail.
type EmailIdentity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
}

// ValidateEmail confirms an identifier maps to an existing account and
// returns its contact identity.
func (service *Service) ValidateEmail(context context.Context, identifier string) (*EmailIdentity, error) {
	account, err := service.userStore.FindByPhoneOrEmail(context, identifier)
	if err != nil {
		return nil, err
	}

	return &EmailIdentity{
		ID:       account.ID,
		Email:    account.Email,
		Phone:    account.Phone,
		Name:     account.Name,
		Lastname: account.Lastname,
	}, nil
}

// # Password Reset Flow

/*
ForgotPassword starts the reset flow for an identifier.

Description: A short-lived numeric code is stored and sent to the account's
WhatsApp number. Delivery failures are surfaced so the client can tell the
user nothing was sent. The response masks the phone so the account holder
can recognize the target without revealing it.

Returns:
  - string: Masked phone number
  - error: Unknown identifier (400), delivery, or storage errors
*/
func (service *Service) ForgotPassword(context context.Context, identifier string) (string, error) {
	account, err := service.userStore.FindByPhoneOrEmail(context, identifier)
	if err != nil {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldUsername,
			Message: "El número de whatsapp o correo electronico no ha sido registrado.",
		})
	}

	code, err := sec.NumericCode(constants.ResetCodeLength)
	if err != nil {
		return "", err
	}

	token := &ResetToken{
		ID:        uuid.New(),
		Token:     code,
		Username:  identifier,
		ExpiresAt: time.Now().Add(constants.ResetCodeTTL),
	}
	if err := service.resets.Create(context, token); err != nil {
		return "", err
	}

	if err := service.notifier.SendResetCode(context, account.Phone, code); err != nil {
		return "", err
	}

	return maskPhone(account.Phone), nil
}

// ValidateResetToken confirms a pending code matches the identifier and has
// not expired yet.
func (service *Service) ValidateResetToken(context context.Context, code, identifier string) error {
	token, err := service.resets.FindByTokenAndUsername(context, code, identifier)
	if err != nil || token.Expired(time.Now()) {
		return invalidResetToken()
	}

	return nil
}

/*
ResetPassword consumes a valid code, replaces the password, and signs the
user in.

Parameters:
  - context: context.Context
  - code: string (the delivered numeric code)
  - password: string (the replacement password)

Returns:
  - sec.TokenPair: Tokens for the recovered account
  - error: Invalid or expired code (400), storage errors
*/
func (service *Service) ResetPassword(context context.Context, code, password string) (sec.TokenPair, error) {
	token, err := service.resets.FindByToken(context, code)
	if err != nil || token.Expired(time.Now()) {
		return sec.TokenPair{}, invalidResetToken()
	}

	account, err := service.userStore.FindByPhoneOrEmail(context, token.Username)
	if err != nil {
		return sec.TokenPair{}, invalidResetToken()
	}

	if err := service.resets.Delete(context, token.ID); err != nil {
		return sec.TokenPair{}, err
	}

	if err := service.users.UpdatePassword(context, account.ID, password, false); err != nil {
		return sec.TokenPair{}, err
	}

	return service.issueSession(context, account,
		constants.LoginAccessTokenTTL, constants.LoginRefreshTokenTTL)
}

func invalidResetToken() error {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   FieldToken,
		Message: "The token is invalid.",
	})
}

func maskPhone(phone string) string {
	if len(phone) <= 6 {
		return "******"
	}
	return "******" + phone[6:]
}
