// Package security encrypts platform tokens before they reach a session store.
package security

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrSecretTooShort is returned for secrets shorter than MinSecretLength.
	ErrSecretTooShort = errors.New("security: secret must be at least 16 bytes")

	// ErrInvalidCiphertext indicates the sealed value is malformed.
	ErrInvalidCiphertext = errors.New("security: invalid ciphertext")

	// ErrDecryptionFailed indicates authentication of the sealed value failed.
	ErrDecryptionFailed = errors.New("security: decryption failed")
)

const (
	// MinSecretLength is the minimum accepted secret length in bytes.
	MinSecretLength = 16

	// sealedPrefix marks values produced by TokenCipher.Seal.
	sealedPrefix = "v1:"

	defaultContext = "reboot-profile-session-token"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN CIPHER
// ══════════════════════════════════════════════════════════════════════════════

// TokenCipher seals tokens with XChaCha20-Poly1305 under a key derived from
// a configured secret via HKDF-SHA256.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher derives the encryption key from secret. An empty secret
// yields a nil cipher, which passes values through unchanged.
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, nil
	}
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	key, err := deriveKey([]byte(secret), []byte(defaultContext), chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

func deriveKey(secret, info []byte, size int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, info)
	key := make([]byte, size)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Enabled reports whether values are actually encrypted.
func (c *TokenCipher) Enabled() bool {
	return c != nil && c.aead != nil
}

// Seal encrypts plaintext. The random nonce is prepended and the result is
// base64url encoded behind a version prefix. Empty input stays empty.
func (c *TokenCipher) Seal(plaintext string) (string, error) {
	if !c.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Values without the version prefix
// are returned as-is so stores written before encryption was enabled stay readable.
func (c *TokenCipher) Open(value string) (string, error) {
	if !c.Enabled() || value == "" {
		return value, nil
	}
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return value, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrInvalidCiphertext)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead()+1 {
		return "", fmt.Errorf("%w: data too short", ErrInvalidCiphertext)
	}

	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}
