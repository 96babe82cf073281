package tokenstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink/internal/oauth"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor("passphrase")
	require.NoError(t, err)

	ct, err := enc.Encrypt("secret-token")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-token", ct)

	ct2, err := enc.Encrypt("secret-token")
	require.NoError(t, err)
	assert.NotEqual(t, ct, ct2, "each encryption should use a fresh nonce")

	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", pt)
}

func TestEncryptor_EmptyKey(t *testing.T) {
	_, err := NewEncryptor("")
	assert.Error(t, err)
}

func TestEncryptor_WrongKey(t *testing.T) {
	a, err := NewEncryptor("key-a")
	require.NoError(t, err)
	b, err := NewEncryptor("key-b")
	require.NoError(t, err)

	ct, err := a.Encrypt("secret")
	require.NoError(t, err)
	_, err = b.Decrypt(ct)
	assert.Error(t, err)
}

func TestEncryptor_Malformed(t *testing.T) {
	enc, err := NewEncryptor("k")
	require.NoError(t, err)

	_, err = enc.Decrypt("not base64!")
	assert.Error(t, err)
	_, err = enc.Decrypt("AAAA")
	assert.Error(t, err)
}

func TestEncryptor_NilPassesThrough(t *testing.T) {
	var enc *Encryptor
	ct, err := enc.Encrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", ct)

	tok, err := enc.seal(&oauth.Token{AccessToken: "AT"})
	require.NoError(t, err)
	assert.Equal(t, "AT", tok.AccessToken)
}

func TestEncryptor_SealOpenToken(t *testing.T) {
	enc, err := NewEncryptor("k")
	require.NoError(t, err)

	orig := &oauth.Token{ID: "id", AccessToken: "AT", RefreshToken: "RT", IDToken: "IDT", Scope: "s"}
	sealed, err := enc.seal(orig)
	require.NoError(t, err)

	assert.Equal(t, "AT", orig.AccessToken, "seal must not modify its input")
	assert.NotEqual(t, "AT", sealed.AccessToken)
	assert.NotEqual(t, "RT", sealed.RefreshToken)
	assert.NotEqual(t, "IDT", sealed.IDToken)
	assert.Equal(t, "s", sealed.Scope)

	opened, err := enc.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, orig, opened)
}
