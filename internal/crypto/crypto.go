// Package crypto seals secrets at rest with AES-256-GCM under a key derived
// from the host's machine identifier.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"strings"
)

var (
	// ErrInvalidCiphertext is returned when decryption fails.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	// ErrInvalidKey is returned when the key is invalid.
	ErrInvalidKey = errors.New("invalid key")
	// ErrEmptySecret is returned when sealing an empty secret.
	ErrEmptySecret = errors.New("secret cannot be empty")
)

const (
	keyDomain       = "fragmind:"
	defaultMachine  = "fragmind-default-key"
	machineIDSource = "/etc/machine-id"
)

// Sealer encrypts and decrypts short secrets with a fixed derived key.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a sealer for machineID. An empty machineID falls back to
// a fixed default, which only obscures the secret.
func NewSealer(machineID string) (*Sealer, error) {
	block, err := aes.NewCipher(DeriveKey(machineID))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext into a base64 string. The nonce is prepended.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(s.aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, ErrInvalidCiphertext
	}
	plaintext, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}

// DeriveKey derives a 32-byte key from a machine identifier.
func DeriveKey(machineID string) []byte {
	if machineID == "" {
		machineID = defaultMachine
	}
	sum := sha256.Sum256([]byte(keyDomain + machineID))
	return sum[:]
}

// MachineID returns the host identifier used when none is configured:
// /etc/machine-id when readable, the hostname otherwise.
func MachineID() string {
	if b, err := os.ReadFile(machineIDSource); err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id
		}
	}
	host, _ := os.Hostname()
	return host
}

// EncryptAPIKey encrypts an API key for storage.
func EncryptAPIKey(apiKey, machineID string) (string, error) {
	if apiKey == "" {
		return "", ErrEmptySecret
	}
	s, err := NewSealer(machineID)
	if err != nil {
		return "", err
	}
	return s.Seal([]byte(apiKey))
}

// DecryptAPIKey decrypts a stored API key. An empty input means no key is set.
func DecryptAPIKey(encryptedKey, machineID string) (string, error) {
	if encryptedKey == "" {
		return "", nil
	}
	s, err := NewSealer(machineID)
	if err != nil {
		return "", err
	}
	plaintext, err := s.Open(encryptedKey)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
