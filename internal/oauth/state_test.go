package oauth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p StateProvider, from, to UserContext) StateValidationResult {
	t.Helper()
	state, err := p.StateForAuthenticationRequest(from, map[string]string{
		StateKeyDataSourceID: "ds1",
		StateKeyFinalURL:     "https://app/done",
	})
	require.NoError(t, err)

	encoded, err := EncodeState(state)
	require.NoError(t, err)
	decoded, err := DecodeState(encoded)
	require.NoError(t, err)
	assert.Equal(t, "ds1", decoded[StateKeyDataSourceID])
	assert.Equal(t, "https://app/done", decoded[StateKeyFinalURL])

	return p.ValidateAuthenticationState(to, decoded)
}

func TestHashedUserStateProvider_RoundTrip(t *testing.T) {
	p := HashedUserStateProvider{}
	res := roundTrip(t, p, NewUserContext("alice"), NewUserContext("alice"))
	assert.True(t, res.OK)
	assert.Empty(t, res.ErrorMessage)
	assert.Empty(t, res.UserID)
}

func TestHashedUserStateProvider_CrossUserFails(t *testing.T) {
	p := HashedUserStateProvider{}
	res := roundTrip(t, p, NewUserContext("alice"), NewUserContext("bob"))
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestHashedUserStateProvider_Guest(t *testing.T) {
	p := HashedUserStateProvider{}
	assert.True(t, roundTrip(t, p, UserContext{}, NewUserContext(GuestUserID)).OK)
	assert.True(t, roundTrip(t, p, UserContext{}, UserContext{}).OK)
	assert.False(t, roundTrip(t, p, UserContext{}, NewUserContext("alice")).OK)
}

func TestHashedUserStateProvider_DoesNotLeakUserID(t *testing.T) {
	state, err := HashedUserStateProvider{}.StateForAuthenticationRequest(NewUserContext("alice@example.com"), nil)
	require.NoError(t, err)
	for _, v := range state {
		assert.NotContains(t, v, "alice")
	}
	assert.Len(t, state[StateKeyUser], 64)
}

func TestHashedUserStateProvider_MissingUser(t *testing.T) {
	res := HashedUserStateProvider{}.ValidateAuthenticationState(NewUserContext("alice"), map[string]string{})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestDecodeState_Invalid(t *testing.T) {
	for _, in := range []string{"", "%%%", base64.RawURLEncoding.EncodeToString([]byte("not json"))} {
		_, err := DecodeState(in)
		assert.ErrorIs(t, err, ErrInvalidState, "input %q", in)
	}
}

func TestDecodeState_AcceptsPadding(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte(`{"user":"xy"}`))
	state, err := DecodeState(padded)
	require.NoError(t, err)
	assert.Equal(t, "xy", state["user"])
}

func TestSignedStateProvider_RoundTrip(t *testing.T) {
	p := NewSignedStateProvider([]byte("secret"), time.Minute, nil)
	assert.True(t, roundTrip(t, p, NewUserContext("alice"), NewUserContext("alice")).OK)
	assert.False(t, roundTrip(t, p, NewUserContext("alice"), NewUserContext("bob")).OK)
}

func TestSignedStateProvider_Tampered(t *testing.T) {
	p := NewSignedStateProvider([]byte("secret"), time.Minute, nil)
	user := NewUserContext("alice")

	state, err := p.StateForAuthenticationRequest(user, map[string]string{StateKeyDataSourceID: "ds1"})
	require.NoError(t, err)
	state[StateKeyDataSourceID] = "ds-other"

	res := p.ValidateAuthenticationState(user, state)
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorMessage, "signature")
}

func TestSignedStateProvider_WrongSecret(t *testing.T) {
	a := NewSignedStateProvider([]byte("a"), time.Minute, nil)
	b := NewSignedStateProvider([]byte("b"), time.Minute, nil)
	user := NewUserContext("alice")

	state, err := a.StateForAuthenticationRequest(user, nil)
	require.NoError(t, err)
	assert.False(t, b.ValidateAuthenticationState(user, state).OK)
}

func TestSignedStateProvider_Expired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	p := NewSignedStateProvider([]byte("secret"), time.Minute, clock)
	user := NewUserContext("alice")

	state, err := p.StateForAuthenticationRequest(user, nil)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	res := p.ValidateAuthenticationState(user, state)
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorMessage, "expired")
}

func TestSignedStateProvider_Replay(t *testing.T) {
	p := NewSignedStateProvider([]byte("secret"), time.Minute, nil)
	user := NewUserContext("alice")

	state, err := p.StateForAuthenticationRequest(user, nil)
	require.NoError(t, err)

	assert.True(t, p.ValidateAuthenticationState(user, state).OK)
	res := p.ValidateAuthenticationState(user, state)
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorMessage, "already used")
}
