package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/illarion/pdfseal/internal/bundle"
	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/keystore"
	"github.com/illarion/pdfseal/internal/logger"
)

const (
	MinPasswordLength = 6
	BundleSuffix      = ".pdfseal"
	DefaultMimeType   = "application/octet-stream"
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordRequired = errors.New("password required")
	ErrKeyIDRequired    = errors.New("key id required")
	ErrAmbiguousCreds   = errors.New("use either a key id or a password, not both")
)

// Credentials select how a bundle is keyed: a stored key by id, or a password.
// Exactly one of KeyID and Password must be set.
type Credentials struct {
	KeyID    string
	Password []byte
}

func (c Credentials) validate() error {
	switch {
	case c.KeyID != "" && len(c.Password) > 0:
		return ErrAmbiguousCreds
	case c.KeyID == "" && len(c.Password) == 0:
		return ErrKeyIDRequired
	}
	return nil
}

// Source is a plaintext file to seal
type Source struct {
	Name     string
	MimeType string
	Size     int64 // expected length for progress, -1 if unknown
	Reader   io.Reader
}

// Opened is the result of decrypting a bundle
type Opened struct {
	Version   byte
	Metadata  bundle.Metadata
	Plaintext []byte
}

// Info describes a bundle without decrypting it
type Info struct {
	Version        byte
	Metadata       bundle.Metadata
	CiphertextSize int
}

// Sealer produces and consumes bundles
type Sealer struct {
	keys   *keystore.Store
	engine *crypto.Engine
	log    *logger.Logger
}

// New creates a Sealer. keys may be nil when only the password path is used.
func New(keys *keystore.Store, engine *crypto.Engine, log *logger.Logger) *Sealer {
	if engine == nil {
		engine = crypto.NewEngine(0)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sealer{keys: keys, engine: engine, log: log}
}

// ValidatePassword enforces the minimum password length, counted in characters
func ValidatePassword(password []byte) error {
	if len(password) == 0 {
		return ErrPasswordRequired
	}
	if utf8.RuneCount(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Seal encrypts src with the given credentials and returns the encoded bundle
func (s *Sealer) Seal(ctx context.Context, src Source, creds Credentials, progress crypto.ProgressFunc) ([]byte, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	if creds.KeyID != "" {
		return s.SealWithKey(ctx, src, creds.KeyID, progress)
	}
	return s.SealWithPassword(ctx, src, creds.Password, progress)
}

// SealWithKey encrypts src under the stored key keyID.
// The bundle still carries a random salt so its layout matches password bundles.
func (s *Sealer) SealWithKey(ctx context.Context, src Source, keyID string, progress crypto.ProgressFunc) ([]byte, error) {
	key, err := s.storedKey(keyID)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}

	log := s.log.With().Str("key_id", keyID).Logger()
	return s.seal(ctx, src, key, salt, bundle.MethodKey, progress, &logger.Logger{Logger: log})
}

// SealWithPassword encrypts src under a key derived from password and a fresh salt
func (s *Sealer) SealWithPassword(ctx context.Context, src Source, password []byte, progress crypto.ProgressFunc) ([]byte, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return s.seal(ctx, src, key, salt, bundle.MethodPassword, progress, s.log)
}

func (s *Sealer) seal(ctx context.Context, src Source, key *crypto.Key, salt []byte, method string, progress crypto.ProgressFunc, log *logger.Logger) ([]byte, error) {
	start := time.Now()

	sealed, err := s.engine.Encrypt(ctx, src.Reader, src.Size, key, progress)
	if err != nil {
		return nil, err
	}

	mimeType := src.MimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	b := bundle.New(salt, sealed.IV, sealed.Ciphertext, bundle.Metadata{
		FileName: src.Name,
		MimeType: mimeType,
		Size:     sealed.PlaintextSize,
		Method:   method,
	})

	data, err := bundle.Encode(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bundle: %w", err)
	}

	log.Debug().
		Str("method", method).
		Int64("size", sealed.PlaintextSize).
		Int("bundle_size", len(data)).
		Dur("took", time.Since(start)).
		Msg("sealed")

	return data, nil
}

// Open decodes and decrypts a bundle with the given credentials
func (s *Sealer) Open(ctx context.Context, blob []byte, creds Credentials, progress crypto.ProgressFunc) (*Opened, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	if creds.KeyID != "" {
		return s.OpenWithKey(ctx, blob, creds.KeyID, progress)
	}
	return s.OpenWithPassword(ctx, blob, creds.Password, progress)
}

// OpenWithKey decrypts a bundle with the stored key keyID
func (s *Sealer) OpenWithKey(ctx context.Context, blob []byte, keyID string, progress crypto.ProgressFunc) (*Opened, error) {
	b, err := bundle.Decode(blob)
	if err != nil {
		return nil, err
	}

	key, err := s.storedKey(keyID)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return s.open(ctx, b, key, progress)
}

// OpenWithPassword re-derives the key from password and the bundle's salt
// and decrypts the bundle
func (s *Sealer) OpenWithPassword(ctx context.Context, blob []byte, password []byte, progress crypto.ProgressFunc) (*Opened, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	b, err := bundle.Decode(blob)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKey(password, b.Salt)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return s.open(ctx, b, key, progress)
}

func (s *Sealer) open(ctx context.Context, b *bundle.Bundle, key *crypto.Key, progress crypto.ProgressFunc) (*Opened, error) {
	start := time.Now()

	plaintext, err := s.engine.DecryptBytes(ctx, b.Ciphertext, key, b.IV, progress)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthFailed) {
			s.log.Debug().Str("method", b.Metadata.Method).Msg("authentication failed")
		}
		return nil, err
	}

	if b.Metadata.Size != int64(len(plaintext)) {
		s.log.Warn().
			Int64("declared", b.Metadata.Size).
			Int("actual", len(plaintext)).
			Msg("bundle metadata size differs from decrypted size")
	}

	s.log.Debug().
		Str("method", b.Metadata.Method).
		Int("size", len(plaintext)).
		Dur("took", time.Since(start)).
		Msg("opened")

	return &Opened{
		Version:   b.Version,
		Metadata:  b.Metadata,
		Plaintext: plaintext,
	}, nil
}

// Inspect returns the clear metadata of a bundle. No key is needed.
func (s *Sealer) Inspect(blob []byte) (*Info, error) {
	b, err := bundle.Decode(blob)
	if err != nil {
		return nil, err
	}
	return &Info{
		Version:        b.Version,
		Metadata:       b.Metadata,
		CiphertextSize: len(b.Ciphertext),
	}, nil
}

func (s *Sealer) storedKey(keyID string) (*crypto.Key, error) {
	if keyID == "" {
		return nil, ErrKeyIDRequired
	}
	if s.keys == nil {
		return nil, fmt.Errorf("%w: %s", keystore.ErrKeyNotFound, keyID)
	}
	return s.keys.Get(keyID)
}
