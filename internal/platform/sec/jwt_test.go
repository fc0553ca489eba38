// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/platform/sec"
)

// payloadOf decodes the claims segment of a compact JWT without verifying it.
func payloadOf(t *testing.T, token string) map[string]json.RawMessage {
	t.Helper()

	segments := strings.Split(token, ".")
	require.Len(t, segments, 3)

	raw, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)

	payload := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

/*
TestTokenService_IssuePair_RoundTrip verifies issued claims decode back intact
and that each token's expiry is issuance time plus its own lifetime.
*/
func TestTokenService_IssuePair_RoundTrip(t *testing.T) {
	service := sec.NewTokenService("test-secret")
	aqID := "4200"

	before := time.Now()
	pair, err := service.IssuePair(sec.SessionClaims{
		ID:              "u-1",
		AqID:            &aqID,
		Session:         "session-marker",
		AvailableCredit: 1200,
		PaymentCapacity: 350.5,
		SecondCredit:    true,
		Roles:           []string{"shopper"},
	}, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	claims, err := service.Decode(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.ID)
	require.NotNil(t, claims.AqID)
	assert.Equal(t, "4200", *claims.AqID)
	assert.Equal(t, "session-marker", claims.Session)
	assert.Equal(t, 1200.0, claims.AvailableCredit)
	assert.Equal(t, 350.5, claims.PaymentCapacity)
	assert.True(t, claims.SecondCredit)
	assert.Equal(t, []string{"shopper"}, claims.Roles)

	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, before.Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	refreshClaims, err := service.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "session-marker", refreshClaims.Session)
	require.NotNil(t, refreshClaims.ExpiresAt)
	assert.WithinDuration(t, before.Add(24*time.Hour), refreshClaims.ExpiresAt.Time, 5*time.Second)
}

/*
TestTokenService_SessionPayloadCompleteness verifies the session wire payload
carries every contract field even when the account has no profile or roles.
Sibling services decode these tokens blind and expect the full key set.
*/
func TestTokenService_SessionPayloadCompleteness(t *testing.T) {
	service := sec.NewTokenService("test-secret")

	pair, err := service.IssuePair(sec.SessionClaims{
		ID:      "u-1",
		Session: "session-marker",
	}, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	payload := payloadOf(t, pair.Token)
	for _, key := range []string{
		"id", "aq_id", "session",
		"available_credit", "payment_capacity", "second_credit",
		"roles", "exp",
	} {
		assert.Contains(t, payload, key)
	}

	assert.JSONEq(t, "null", string(payload["aq_id"]))
	assert.JSONEq(t, "0", string(payload["available_credit"]))
	assert.JSONEq(t, "false", string(payload["second_credit"]))
	assert.JSONEq(t, "[]", string(payload["roles"]))
}

/*
TestTokenService_AppPayloadIsMinimal verifies application tokens carry only
the ID and expiry, with no session or snapshot fields.
*/
func TestTokenService_AppPayloadIsMinimal(t *testing.T) {
	service := sec.NewTokenService("test-secret")

	token, err := service.IssueApp(sec.AppClaims{ID: "a-1"}, time.Hour)
	require.NoError(t, err)

	payload := payloadOf(t, token)
	assert.JSONEq(t, `"a-1"`, string(payload["id"]))
	assert.Contains(t, payload, "exp")
	assert.NotContains(t, payload, "session")
	assert.NotContains(t, payload, "roles")
	assert.NotContains(t, payload, "available_credit")

	claims, err := service.Decode(token)
	require.NoError(t, err)
	assert.True(t, claims.IsApp())
}

/*
TestTokenService_Decode_Rejections covers the failure paths: expired tokens,
tokens signed with a different secret, and garbage input.
*/
func TestTokenService_Decode_Rejections(t *testing.T) {
	service := sec.NewTokenService("test-secret")

	t.Run("expired", func(t *testing.T) {
		pair, err := service.IssuePair(sec.SessionClaims{ID: "u-1", Session: "s"}, -time.Minute, -time.Minute)
		require.NoError(t, err)

		_, err = service.Decode(pair.Token)
		require.Error(t, err)
		assert.Equal(t, "Invalid or expired token", err.Error())
	})

	t.Run("wrong_secret", func(t *testing.T) {
		other := sec.NewTokenService("another-secret")
		pair, err := other.IssuePair(sec.SessionClaims{ID: "u-1", Session: "s"}, time.Hour, time.Hour)
		require.NoError(t, err)

		_, err = service.Decode(pair.Token)
		require.Error(t, err)
		assert.Equal(t, "Invalid or expired token", err.Error())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.Decode("not-a-token")
		require.Error(t, err)
	})
}

/*
TestTokenService_Decode_BearerScheme verifies the optional "Bearer " prefix
is stripped case-sensitively: the exact scheme is tolerated, variants fail.
*/
func TestTokenService_Decode_BearerScheme(t *testing.T) {
	service := sec.NewTokenService("test-secret")
	pair, err := service.IssuePair(sec.SessionClaims{ID: "u-1", Session: "s"}, time.Hour, time.Hour)
	require.NoError(t, err)

	claims, err := service.Decode("Bearer " + pair.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.ID)

	_, err = service.Decode("bearer " + pair.Token)
	require.Error(t, err)
}
