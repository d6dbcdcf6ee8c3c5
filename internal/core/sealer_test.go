package core

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/pdfseal/internal/bundle"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/keystore"
)

func newTestSealer(t *testing.T) (*Sealer, *keystore.Store) {
	t.Helper()
	keys := keystore.New(keystore.NewMemoryBackend(), nil)
	return New(keys, crypto.NewEngine(64*1024), nil), keys
}

func persistKey(t *testing.T, keys *keystore.Store) string {
	t.Helper()
	key, err := keys.GenerateKey()
	require.NoError(t, err)
	id := keys.GenerateID()
	require.NoError(t, keys.Persist(id, key))
	return id
}

func source(name string, data []byte) Source {
	return Source{
		Name:     name,
		MimeType: "application/pdf",
		Size:     int64(len(data)),
		Reader:   bytes.NewReader(data),
	}
}

func TestSealOpen_Key(t *testing.T) {
	s, keys := newTestSealer(t)
	id := persistKey(t, keys)
	plaintext := []byte("%PDF-1.7 quarterly report")

	blob, err := s.Seal(t.Context(), source("report.pdf", plaintext), Credentials{KeyID: id}, nil)
	require.NoError(t, err)

	opened, err := s.Open(t.Context(), blob, Credentials{KeyID: id}, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened.Plaintext)
	assert.Equal(t, bundle.CurrentVersion, opened.Version)
	assert.Equal(t, bundle.Metadata{
		FileName: "report.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(plaintext)),
		Method:   bundle.MethodKey,
	}, opened.Metadata)
}

func TestSealOpen_Password(t *testing.T) {
	s, _ := newTestSealer(t)
	password := []byte("correct horse")
	plaintext := []byte("password protected content")

	blob, err := s.Seal(t.Context(), source("a.pdf", plaintext), Credentials{Password: password}, nil)
	require.NoError(t, err)

	info, err := s.Inspect(blob)
	require.NoError(t, err)
	assert.True(t, info.Metadata.UsesPassword())

	opened, err := s.Open(t.Context(), blob, Credentials{Password: password}, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened.Plaintext)
}

func TestOpen_WrongPasswordSameSalt(t *testing.T) {
	s, _ := newTestSealer(t)

	salt, err := crypto.NewSalt()
	require.NoError(t, err)

	wrong, err := crypto.DeriveKey([]byte("wrong horse"), salt)
	require.NoError(t, err)
	sealed, err := s.engine.EncryptBytes(t.Context(), []byte("secret"), wrong, nil)
	require.NoError(t, err)

	blob, err := bundle.Encode(bundle.New(salt, sealed.IV, sealed.Ciphertext, bundle.Metadata{
		FileName: "x.pdf",
		Size:     6,
		Method:   bundle.MethodPassword,
	}))
	require.NoError(t, err)

	_, err = s.OpenWithPassword(t.Context(), blob, []byte("correct horse"), nil)
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)
}

func TestOpen_WrongKey(t *testing.T) {
	s, keys := newTestSealer(t)
	id1 := persistKey(t, keys)
	id2 := persistKey(t, keys)

	blob, err := s.SealWithKey(t.Context(), source("a.pdf", []byte("data")), id1, nil)
	require.NoError(t, err)

	_, err = s.OpenWithKey(t.Context(), blob, id2, nil)
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)
}

func TestOpen_TamperedLooksLikeWrongPassword(t *testing.T) {
	s, _ := newTestSealer(t)
	password := []byte("correct horse")

	blob, err := s.SealWithPassword(t.Context(), source("a.pdf", []byte("data")), password, nil)
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0x01
	_, tamperErr := s.OpenWithPassword(t.Context(), blob, password, nil)
	blob[len(blob)-1] ^= 0x01
	_, wrongErr := s.OpenWithPassword(t.Context(), blob, []byte("battery staple"), nil)

	require.ErrorIs(t, tamperErr, crypto.ErrAuthFailed)
	require.ErrorIs(t, wrongErr, crypto.ErrAuthFailed)
	assert.Equal(t, tamperErr.Error(), wrongErr.Error())
}

func TestSealOpen_UnknownKey(t *testing.T) {
	s, keys := newTestSealer(t)

	_, err := s.SealWithKey(t.Context(), source("a.pdf", []byte("data")), "missing", nil)
	assert.ErrorIs(t, err, keystore.ErrKeyNotFound)

	id := persistKey(t, keys)
	blob, err := s.SealWithKey(t.Context(), source("a.pdf", []byte("data")), id, nil)
	require.NoError(t, err)
	require.NoError(t, keys.Delete(id))

	_, err = s.OpenWithKey(t.Context(), blob, id, nil)
	assert.ErrorIs(t, err, keystore.ErrKeyNotFound)
}

func TestSeal_PasswordPolicy(t *testing.T) {
	s, _ := newTestSealer(t)

	_, err := s.SealWithPassword(t.Context(), source("a.pdf", []byte("x")), []byte("12345"), nil)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = s.SealWithPassword(t.Context(), source("a.pdf", []byte("x")), nil, nil)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	// Six characters, more than six bytes
	_, err = s.SealWithPassword(t.Context(), source("a.pdf", []byte("x")), []byte("пароль"), nil)
	assert.NoError(t, err)
}

func TestCredentials(t *testing.T) {
	s, _ := newTestSealer(t)

	_, err := s.Seal(t.Context(), source("a.pdf", nil), Credentials{}, nil)
	assert.ErrorIs(t, err, ErrKeyIDRequired)

	_, err = s.Seal(t.Context(), source("a.pdf", nil), Credentials{KeyID: "k", Password: []byte("secret1")}, nil)
	assert.ErrorIs(t, err, ErrAmbiguousCreds)
}

func TestOpen_MalformedBundle(t *testing.T) {
	s, _ := newTestSealer(t)

	_, err := s.OpenWithPassword(t.Context(), []byte("short"), []byte("correct horse"), nil)
	assert.ErrorIs(t, err, bundle.ErrMalformedBundle)

	_, err = s.Inspect(make([]byte, bundle.LegacyHeaderSize-1))
	assert.ErrorIs(t, err, bundle.ErrMalformedBundle)
}

func TestSeal_FreshSaltAndIV(t *testing.T) {
	s, _ := newTestSealer(t)
	password := []byte("correct horse")

	a, err := s.SealWithPassword(t.Context(), source("a.pdf", []byte("same")), password, nil)
	require.NoError(t, err)
	b, err := s.SealWithPassword(t.Context(), source("a.pdf", []byte("same")), password, nil)
	require.NoError(t, err)

	ba, err := bundle.Decode(a)
	require.NoError(t, err)
	bb, err := bundle.Decode(b)
	require.NoError(t, err)

	assert.NotEqual(t, ba.Salt, bb.Salt)
	assert.NotEqual(t, ba.IV, bb.IV)
}

func TestOpen_LegacyBundle(t *testing.T) {
	s, keys := newTestSealer(t)
	id := persistKey(t, keys)
	key, err := keys.Get(id)
	require.NoError(t, err)

	sealed, err := s.engine.EncryptBytes(t.Context(), []byte("old"), key, nil)
	require.NoError(t, err)
	salt, err := crypto.NewSalt()
	require.NoError(t, err)

	legacy := bundle.New(salt, sealed.IV, sealed.Ciphertext, bundle.Metadata{FileName: "old.pdf", Size: 3, Method: bundle.MethodKey})
	legacy.Version = bundle.VersionLegacy
	blob, err := bundle.Encode(legacy)
	require.NoError(t, err)

	opened, err := s.OpenWithKey(t.Context(), blob, id, nil)
	require.NoError(t, err)
	assert.Equal(t, bundle.VersionLegacy, opened.Version)
	assert.Equal(t, []byte("old"), opened.Plaintext)
}

func TestSealOpen_TenMegabytes(t *testing.T) {
	s, _ := newTestSealer(t)
	password := []byte("correct horse")

	plaintext := make([]byte, 10*1024*1024)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	var sealProgress, openProgress []int
	blob, err := s.SealWithPassword(t.Context(), source("big.pdf", plaintext), password, func(p int) {
		sealProgress = append(sealProgress, p)
	})
	require.NoError(t, err)

	opened, err := s.OpenWithPassword(t.Context(), blob, password, func(p int) {
		openProgress = append(openProgress, p)
	})
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plaintext, opened.Plaintext))

	for _, progress := range [][]int{sealProgress, openProgress} {
		require.NotEmpty(t, progress)
		for i := 1; i < len(progress); i++ {
			require.GreaterOrEqual(t, progress[i], progress[i-1])
		}
		assert.Equal(t, 100, progress[len(progress)-1])
		assert.Equal(t, 1, countOf(progress, 100))
	}
}

func countOf(values []int, v int) int {
	n := 0
	for _, x := range values {
		if x == v {
			n++
		}
	}
	return n
}

func TestSeal_DefaultMimeType(t *testing.T) {
	s, _ := newTestSealer(t)

	src := source("a.bin", []byte("x"))
	src.MimeType = ""
	blob, err := s.SealWithPassword(t.Context(), src, []byte("correct horse"), nil)
	require.NoError(t, err)

	info, err := s.Inspect(blob)
	require.NoError(t, err)
	assert.Equal(t, DefaultMimeType, info.Metadata.MimeType)
}

func TestSeal_Cancelled(t *testing.T) {
	s, keys := newTestSealer(t)
	id := persistKey(t, keys)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.SealWithKey(ctx, source("a.pdf", []byte("data")), id, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
