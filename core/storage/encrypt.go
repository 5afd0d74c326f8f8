package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

// DEKEnv names the environment variable holding the data encryption key.
const DEKEnv = "SCANLEDGER_DEK"

// ErrNoKey is returned when no usable data encryption key is configured.
var ErrNoKey = errors.New("data encryption key not configured")

// KeyFromEnv retrieves the Data Encryption Key from the environment
// (base64-encoded, 32 bytes after decoding).
func KeyFromEnv() ([]byte, error) {
	dekB64 := os.Getenv(DEKEnv)
	if dekB64 == "" {
		return nil, fmt.Errorf("%w: %s not set in environment", ErrNoKey, DEKEnv)
	}
	return DecodeKey(dekB64)
}

// DecodeKey decodes a base64 key and checks it is 32 bytes.
func DecodeKey(dekB64 string) ([]byte, error) {
	dek, err := base64.StdEncoding.DecodeString(dekB64)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrNoKey, DEKEnv, err)
	}
	if len(dek) != 32 {
		return nil, fmt.Errorf("%w: %s must be 32 bytes (base64-encoded)", ErrNoKey, DEKEnv)
	}
	return dek, nil
}

// Encrypt encrypts plaintext using AES-256-GCM and a random nonce
func Encrypt(dek, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(dek)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext using AES-256-GCM
func Decrypt(dek, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(dek)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ct, nil)
}

func newGCM(dek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptedBackend seals the document before handing it to the wrapped
// backend and opens it on the way back.
type EncryptedBackend struct {
	inner Backend
	dek   []byte
}

func NewEncryptedBackend(inner Backend, dek []byte) (*EncryptedBackend, error) {
	if len(dek) != 32 {
		return nil, fmt.Errorf("%w: key must be 32 bytes", ErrNoKey)
	}
	return &EncryptedBackend{inner: inner, dek: append([]byte(nil), dek...)}, nil
}

func (e *EncryptedBackend) Read() ([]byte, error) {
	enc, err := e.inner.Read()
	if err != nil {
		return nil, err
	}
	plain, err := Decrypt(e.dek, enc)
	if err != nil {
		return nil, fmt.Errorf("decrypt ledger document: %w", err)
	}
	return plain, nil
}

func (e *EncryptedBackend) Write(data []byte) error {
	enc, err := Encrypt(e.dek, data)
	if err != nil {
		return fmt.Errorf("encrypt ledger document: %w", err)
	}
	return e.inner.Write(enc)
}

func (e *EncryptedBackend) String() string {
	return fmt.Sprintf("encrypted(%v)", e.inner)
}
