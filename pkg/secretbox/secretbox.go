// Package secretbox encrypts service-provider metadata with a key derived
// from the process secret.
package secretbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrEmptySecret is returned when no process secret is configured.
	ErrEmptySecret = errors.New("secretbox: empty secret")
	// ErrDecrypt is returned when a blob cannot be opened with the key.
	ErrDecrypt = errors.New("secretbox: decryption failed")
)

// Box implements pledge.Cipher with NaCl secretbox.
type Box struct {
	key [keySize]byte
}

// New derives the encryption key for purpose from secret.
func New(secret, purpose string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	b := &Box{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, b.key[:]); err != nil {
		return nil, fmt.Errorf("secretbox: derive key: %w", err)
	}
	return b, nil
}

// Encrypt seals plaintext and returns it base64 encoded with its nonce.
func (b *Box) Encrypt(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (b *Box) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return out, nil
}
