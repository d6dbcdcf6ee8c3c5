package crypto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ProgressFunc receives a completion percentage in [0, 100].
// Values strictly increase, starting at 0, and 100 is delivered exactly
// once, right before a successful Encrypt or Decrypt returns.
type ProgressFunc func(percent int)

func (p ProgressFunc) report(percent int) {
	if p != nil {
		p(percent)
	}
}

// Sealed is the output of Engine.Encrypt
type Sealed struct {
	Ciphertext    []byte // ciphertext with the GCM tag appended
	IV            []byte // 12-byte nonce used for this call only
	PlaintextSize int64
}

// Engine performs AES-256-GCM encryption and decryption.
// Input is ingested in fixed-size chunks so progress can be reported and
// ctx honored; the AEAD itself is applied once over the whole input, so
// the output is identical to a single-shot Seal/Open.
type Engine struct {
	chunkSize int
}

// NewEngine creates an engine reporting progress every chunkSize bytes.
// A non-positive chunkSize selects ChunkSize.
func NewEngine(chunkSize int) *Engine {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	return &Engine{chunkSize: chunkSize}
}

// Encrypt reads src to EOF and encrypts it under key with a fresh random IV.
// size is the expected input length used for progress; pass -1 if unknown.
func (e *Engine) Encrypt(ctx context.Context, src io.Reader, size int64, key *Key, progress ProgressFunc) (*Sealed, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	gcm, err := newGCM(key.raw)
	if err != nil {
		return nil, err
	}

	plaintext, err := e.ingest(ctx, src, size, progress)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(plaintext)

	iv, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, plaintext, nil)

	progress.report(100)
	return &Sealed{
		Ciphertext:    ciphertext,
		IV:            iv,
		PlaintextSize: int64(len(plaintext)),
	}, nil
}

// Decrypt reads ciphertext from src and authenticates and decrypts it.
// Any authentication failure, whether from a wrong key or from tampering,
// is reported as ErrAuthFailed and no plaintext is returned.
func (e *Engine) Decrypt(ctx context.Context, src io.Reader, size int64, key *Key, iv []byte, progress ProgressFunc) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	if len(iv) != NonceSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidNonce, NonceSize, len(iv))
	}

	gcm, err := newGCM(key.raw)
	if err != nil {
		return nil, err
	}

	ciphertext, err := e.ingest(ctx, src, size, progress)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < TagSize {
		return nil, ErrAuthFailed
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	progress.report(100)
	return plaintext, nil
}

// EncryptBytes is Encrypt over an in-memory plaintext
func (e *Engine) EncryptBytes(ctx context.Context, plaintext []byte, key *Key, progress ProgressFunc) (*Sealed, error) {
	return e.Encrypt(ctx, bytes.NewReader(plaintext), int64(len(plaintext)), key, progress)
}

// DecryptBytes is Decrypt over an in-memory ciphertext
func (e *Engine) DecryptBytes(ctx context.Context, ciphertext []byte, key *Key, iv []byte, progress ProgressFunc) ([]byte, error) {
	return e.Decrypt(ctx, bytes.NewReader(ciphertext), int64(len(ciphertext)), key, iv, progress)
}

// ingest reads src chunk by chunk, reporting progress in [0, 99].
// Each percentage is reported once. The buffer is managed here so that
// every copy of the input left behind by growth is zeroed.
func (e *Engine) ingest(ctx context.Context, src io.Reader, size int64, progress ProgressFunc) ([]byte, error) {
	var buf []byte
	if size > 0 {
		buf = make([]byte, 0, size)
	}

	chunk := make([]byte, e.chunkSize)
	defer ClearBytes(chunk)

	last := 0
	progress.report(last)

	for {
		if err := ctx.Err(); err != nil {
			ClearBytes(buf)
			return nil, err
		}

		n, err := io.ReadFull(src, chunk)
		if n > 0 {
			buf = appendClearing(buf, chunk[:n])
			if size > 0 {
				percent := int(int64(len(buf)) * 99 / size)
				if percent > 99 {
					percent = 99
				}
				if percent > last {
					last = percent
					progress.report(last)
				}
			}
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			ClearBytes(buf)
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	}

	return buf, nil
}

// appendClearing appends data to buf, zeroing the old backing array when
// it has to grow
func appendClearing(buf, data []byte) []byte {
	if len(buf)+len(data) <= cap(buf) {
		return append(buf, data...)
	}

	grown := make([]byte, len(buf), 2*cap(buf)+len(data))
	copy(grown, buf)
	ClearBytes(buf[:cap(buf)])
	return append(grown, data...)
}
