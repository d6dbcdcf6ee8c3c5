package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Algorithm is the only supported key algorithm (JWK "alg")
const Algorithm = "A256GCM"

// Key is a symmetric AES-256-GCM key.
// ID is caller-assigned bookkeeping and carries no cryptographic meaning.
type Key struct {
	ID        string
	Algorithm string
	raw       []byte
}

// jsonWebKey is the serialized form produced by Export
type jsonWebKey struct {
	Kty    string   `json:"kty"`
	Alg    string   `json:"alg"`
	K      string   `json:"k"`
	Ext    bool     `json:"ext"`
	KeyOps []string `json:"key_ops"`
	Kid    string   `json:"kid,omitempty"`
}

// NewKey wraps a copy of raw key bytes
func NewKey(raw []byte) (*Key, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(raw))
	}
	return &Key{
		Algorithm: Algorithm,
		raw:       append([]byte(nil), raw...),
	}, nil
}

// GenerateKey creates a new random 256-bit key
func GenerateKey() (*Key, error) {
	raw, err := GenerateRandom(KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Key{Algorithm: Algorithm, raw: raw}, nil
}

// Bytes returns a copy of the raw key material
func (k *Key) Bytes() []byte {
	return append([]byte(nil), k.raw...)
}

// Equal reports whether two keys hold the same key material
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return false
	}
	return ConstantTimeCompare(k.raw, other.raw)
}

// Destroy clears the key material from memory.
// A destroyed key can no longer encrypt, decrypt or be exported.
func (k *Key) Destroy() {
	ClearBytes(k.raw)
	k.raw = nil
}

func (k *Key) validate() error {
	if k == nil || len(k.raw) != KeySize {
		return ErrInvalidKey
	}
	if k.Algorithm != Algorithm {
		return fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidKey, k.Algorithm)
	}
	return nil
}

// Export serializes the key as a JSON Web Key
func (k *Key) Export() (string, error) {
	if err := k.validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(jsonWebKey{
		Kty:    "oct",
		Alg:    Algorithm,
		K:      base64.RawURLEncoding.EncodeToString(k.raw),
		Ext:    true,
		KeyOps: []string{"encrypt", "decrypt"},
		Kid:    k.ID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal key: %w", err)
	}
	return string(data), nil
}

// ImportKey parses a key produced by Export
func ImportKey(text string) (*Key, error) {
	var jwk jsonWebKey
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &jwk); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	if jwk.Kty != "oct" {
		return nil, fmt.Errorf("%w: unsupported key type %q", ErrMalformedKey, jwk.Kty)
	}
	if jwk.Alg != Algorithm {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedKey, jwk.Alg)
	}

	raw, err := base64.RawURLEncoding.DecodeString(jwk.K)
	if err != nil {
		return nil, fmt.Errorf("%w: key material is not base64url: %v", ErrMalformedKey, err)
	}
	if len(raw) != KeySize {
		ClearBytes(raw)
		return nil, fmt.Errorf("%w: key material must be %d bytes", ErrMalformedKey, KeySize)
	}

	defer ClearBytes(raw)

	key, err := NewKey(raw)
	if err != nil {
		return nil, err
	}
	key.ID = jwk.Kid
	return key, nil
}
