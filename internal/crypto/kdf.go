package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey derives an encryption key from a password and salt.
// The same inputs always yield the same key. Password policy (minimum
// length) is the caller's concern; any non-empty password is accepted.
func DeriveKey(password, salt []byte) (*Key, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSalt, SaltSize, len(salt))
	}

	raw := pbkdf2.Key(password, salt, DefaultIters, KeySize, sha256.New)
	return &Key{Algorithm: Algorithm, raw: raw}, nil
}
