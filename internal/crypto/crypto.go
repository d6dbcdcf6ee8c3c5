package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	SaltSize     = 16         // Salt size in bytes
	KeySize      = 32         // AES-256 key size
	NonceSize    = 12         // GCM nonce size
	TagSize      = 16         // GCM authentication tag size
	DefaultIters = 210000     // PBKDF2 iterations (OWASP minimum)
	ChunkSize    = 256 * 1024 // Progress granularity
)

var (
	ErrAuthFailed        = errors.New("authentication failed")
	ErrMalformedKey      = errors.New("malformed key")
	ErrInvalidKey        = errors.New("invalid key")
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrInvalidSalt       = errors.New("invalid salt")
	ErrEmptyPassword     = errors.New("empty password")
	ErrRandomUnavailable = errors.New("random source unavailable")
)

// newGCM builds an AES-256-GCM AEAD for a raw key
func newGCM(raw []byte) (cipher.AEAD, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(raw))
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes.
// A failure here means the platform RNG is unusable and is not recoverable.
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomUnavailable, err)
	}
	return b, nil
}

// NewSalt returns a fresh random salt for password derivation
func NewSalt() ([]byte, error) {
	return GenerateRandom(SaltSize)
}
