package oauth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenResponse_Parsing(t *testing.T) {
	body := `{
  "access_token": "my_access_token",
  "expires_in": 3599,
  "refresh_token": "my_refresh_token",
  "scope": "https://www.googleapis.com/auth/userinfo.email openid",
  "token_type": "Bearer",
  "id_token": "my_id_token"
}`
	var r TokenResponse
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.Equal(t, "my_access_token", r.AccessToken)
	assert.Equal(t, int64(3599), r.ExpiresIn)
	assert.Equal(t, "my_refresh_token", r.RefreshToken)
	assert.Equal(t, "Bearer", r.TokenType)
	assert.Equal(t, "my_id_token", r.IDToken)
	assert.False(t, r.Failed())
	assert.NoError(t, r.Err())
}

func TestTokenResponse_ErrorParsing(t *testing.T) {
	var r TokenResponse
	require.NoError(t, json.Unmarshal([]byte(`{"error":"invalid_grant","error_description":"Bad Request"}`), &r))

	assert.Empty(t, r.AccessToken)
	assert.True(t, r.Failed())

	var pe *ProviderError
	require.ErrorAs(t, r.Err(), &pe)
	assert.Equal(t, "invalid_grant", pe.Code)
	assert.Equal(t, "Bad Request", pe.Description)
}

func TestExpirationFor(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	assert.Equal(t, int64(1_700_003_600_000), ExpirationFor(now, 3600))
	assert.Equal(t, int64(0), ExpirationFor(now, 0))
	assert.Equal(t, int64(0), ExpirationFor(now, -5))
}

func TestTokenResponse_NewTokenUsesReceivedAt(t *testing.T) {
	received := time.UnixMilli(1_000_000)
	r := TokenResponse{AccessToken: "AT", RefreshToken: "RT", ExpiresIn: 10, Scope: "s", ReceivedAt: received}

	tok := r.NewToken("https://app/cb")
	assert.Equal(t, "AT", tok.AccessToken)
	assert.Equal(t, "RT", tok.RefreshToken)
	assert.Equal(t, int64(1_010_000), tok.Expiration)
	assert.Equal(t, "https://app/cb", tok.RedirectURI)
	assert.Equal(t, "s", tok.Scope)
}

func TestToken_Refreshed(t *testing.T) {
	tok := &Token{AccessToken: "old", RefreshToken: "RT", Expiration: 1}

	tok.Refreshed("new", 2, "")
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, int64(2), tok.Expiration)
	assert.Equal(t, "RT", tok.RefreshToken, "refresh token kept when provider omits it")

	tok.Refreshed("newer", 3, "RT2")
	assert.Equal(t, "RT2", tok.RefreshToken)
}

func TestToken_CloneIsDeep(t *testing.T) {
	tok := &Token{ID: "t", UserInfo: UserInfo{"sub": "1"}}
	c := tok.Clone()
	c.UserInfo["sub"] = "2"
	c.ID = "other"

	assert.Equal(t, "1", tok.UserInfo["sub"])
	assert.Equal(t, "t", tok.ID)

	var nilTok *Token
	assert.Nil(t, nilTok.Clone())
}

func TestToken_OAuth2Token(t *testing.T) {
	tok := &Token{AccessToken: "AT", RefreshToken: "RT", Expiration: 1_700_000_000_000, IDToken: "IDT"}
	o := tok.OAuth2Token()

	assert.Equal(t, "AT", o.AccessToken)
	assert.Equal(t, "RT", o.RefreshToken)
	assert.Equal(t, "Bearer", o.TokenType)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000), o.Expiry)
	assert.Equal(t, "IDT", o.Extra("id_token"))

	never := (&Token{AccessToken: "AT"}).OAuth2Token()
	assert.True(t, never.Expiry.IsZero())
}

func TestToken_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(&Token{ID: "i", AccessToken: "a", Expiration: 5, RedirectURI: "r"})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "i", m["id"])
	assert.Equal(t, "a", m["accessToken"])
	assert.Equal(t, float64(5), m["expiration"])
	assert.Equal(t, "r", m["redirectUri"])
	assert.NotContains(t, m, "refreshToken")
}
