package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dashlink/dashlink/internal/oauth"
)

const (
	keySalt       = "dashlink-tokenstore"
	keyIterations = 10000
	keyLength     = 32
)

// Encryptor seals token secrets with AES-256-GCM. A nil *Encryptor passes
// values through unchanged.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives a 32 byte key from passphrase.
func NewEncryptor(passphrase string) (*Encryptor, error) {
	if passphrase == "" {
		return nil, errors.New("encryption key cannot be empty")
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(keySalt), keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext). Empty input stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if e == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	if e == nil || encoded == "" {
		return encoded, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	ns := e.aead.NonceSize()
	if len(data) < ns {
		return "", errors.New("ciphertext too short")
	}
	plain, err := e.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

// seal returns a copy of t with its secrets encrypted.
func (e *Encryptor) seal(t *oauth.Token) (*oauth.Token, error) {
	c := t.Clone()
	if e == nil {
		return c, nil
	}
	var err error
	if c.AccessToken, err = e.Encrypt(c.AccessToken); err != nil {
		return nil, err
	}
	if c.RefreshToken, err = e.Encrypt(c.RefreshToken); err != nil {
		return nil, err
	}
	if c.IDToken, err = e.Encrypt(c.IDToken); err != nil {
		return nil, err
	}
	return c, nil
}

// open returns a copy of t with its secrets decrypted.
func (e *Encryptor) open(t *oauth.Token) (*oauth.Token, error) {
	c := t.Clone()
	if e == nil || c == nil {
		return c, nil
	}
	var err error
	if c.AccessToken, err = e.Decrypt(c.AccessToken); err != nil {
		return nil, err
	}
	if c.RefreshToken, err = e.Decrypt(c.RefreshToken); err != nil {
		return nil, err
	}
	if c.IDToken, err = e.Decrypt(c.IDToken); err != nil {
		return nil, err
	}
	return c, nil
}
