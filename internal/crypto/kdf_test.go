package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_DeterministicForSameInputs(t *testing.T) {
	salt := bytes.Repeat([]byte{0xAB}, SaltSize)

	k1, err := DeriveKey([]byte("correct horse"), salt)
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("correct horse"), salt)
	require.NoError(t, err)

	assert.Len(t, k1.Bytes(), KeySize)
	assert.Equal(t, k1.Bytes(), k2.Bytes())
}

func TestDeriveKey_DifferentInputsProduceDifferentKeys(t *testing.T) {
	salt1 := bytes.Repeat([]byte{0x01}, SaltSize)
	salt2 := bytes.Repeat([]byte{0x02}, SaltSize)

	base, err := DeriveKey([]byte("same password"), salt1)
	require.NoError(t, err)
	otherSalt, err := DeriveKey([]byte("same password"), salt2)
	require.NoError(t, err)
	otherPassword, err := DeriveKey([]byte("other password"), salt1)
	require.NoError(t, err)

	assert.False(t, base.Equal(otherSalt))
	assert.False(t, base.Equal(otherPassword))
}

func TestDeriveKey_RejectsInvalidInput(t *testing.T) {
	_, err := DeriveKey(nil, make([]byte, SaltSize))
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = DeriveKey([]byte("password"), make([]byte, 8))
	assert.ErrorIs(t, err, ErrInvalidSalt)
}

func TestDeriveKey_AcceptsShortPasswords(t *testing.T) {
	// minimum length is a caller policy, not a deriver rule
	key, err := DeriveKey([]byte("a"), make([]byte, SaltSize))
	require.NoError(t, err)
	assert.Len(t, key.Bytes(), KeySize)
}

func TestNewSalt_LengthAndRandomness(t *testing.T) {
	s1, err := NewSalt()
	require.NoError(t, err)
	s2, err := NewSalt()
	require.NoError(t, err)

	assert.Len(t, s1, SaltSize)
	assert.NotEqual(t, s1, s2)
}
