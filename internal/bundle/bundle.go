package bundle

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	SaltSize         = 16      // Password salt, present in every bundle
	IVSize           = 12      // GCM nonce
	lengthSize       = 4       // Big-endian metadata length
	LegacyHeaderSize = SaltSize + IVSize + lengthSize
	MaxMetadataSize  = 1 << 20 // Sanity bound for the declared metadata length
)

// Magic prefixes versioned bundles.
const Magic = "PDFS"

// Format versions
const (
	VersionLegacy byte = 0 // bare salt|iv|len|metadata|ciphertext layout
	Version1      byte = 1 // Magic + version byte + legacy layout

	CurrentVersion = Version1
)

const versionHeaderSize = len(Magic) + 1

var (
	ErrMalformedBundle = errors.New("malformed bundle")
	ErrInvalidField    = errors.New("invalid bundle field")
)

// Bundle is the self-contained container for one encrypted file.
// Everything needed to attempt decryption except the key or password is here.
type Bundle struct {
	Version    byte
	Salt       []byte
	IV         []byte
	Metadata   Metadata
	Ciphertext []byte // ciphertext with the GCM tag appended
}

// New creates a bundle in the current format version
func New(salt, iv, ciphertext []byte, metadata Metadata) *Bundle {
	return &Bundle{
		Version:    CurrentVersion,
		Salt:       salt,
		IV:         iv,
		Metadata:   metadata,
		Ciphertext: ciphertext,
	}
}

// Encode serializes b. The layout is deterministic for identical input:
//
//	[Magic][version]              (Version1 only)
//	[salt 16][iv 12][len 4][metadata JSON][ciphertext+tag]
func Encode(b *Bundle) ([]byte, error) {
	if len(b.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidField, SaltSize, len(b.Salt))
	}
	if len(b.IV) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidField, IVSize, len(b.IV))
	}
	if err := b.Metadata.Validate(); err != nil {
		return nil, err
	}

	meta, err := json.Marshal(b.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if len(meta) > MaxMetadataSize {
		return nil, fmt.Errorf("%w: metadata is %d bytes, max %d", ErrInvalidField, len(meta), MaxMetadataSize)
	}

	var header int
	switch b.Version {
	case VersionLegacy:
	case Version1:
		header = versionHeaderSize
	default:
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalidField, b.Version)
	}

	out := make([]byte, 0, header+LegacyHeaderSize+len(meta)+len(b.Ciphertext))
	if b.Version != VersionLegacy {
		out = append(out, Magic...)
		out = append(out, b.Version)
	}
	out = append(out, b.Salt...)
	out = append(out, b.IV...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(meta)))
	out = append(out, meta...)
	out = append(out, b.Ciphertext...)

	return out, nil
}

// Decode parses data produced by Encode, in either format version.
// Ciphertext aliases data; Salt and IV are copies.
func Decode(data []byte) (*Bundle, error) {
	if hasVersionHeader(data) {
		b, err := decodeLayout(data[versionHeaderSize:])
		if err == nil {
			b.Version = data[len(Magic)]
			return b, nil
		}
		// A legacy bundle whose salt happens to begin with the header
		if legacy, legacyErr := decodeLayout(data); legacyErr == nil {
			return legacy, nil
		}
		return nil, err
	}

	return decodeLayout(data)
}

func hasVersionHeader(data []byte) bool {
	return len(data) >= versionHeaderSize &&
		bytes.Equal(data[:len(Magic)], []byte(Magic)) &&
		data[len(Magic)] == Version1
}

// decodeLayout parses the legacy layout
func decodeLayout(data []byte) (*Bundle, error) {
	if len(data) < LegacyHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrMalformedBundle, len(data), LegacyHeaderSize)
	}

	salt := append([]byte(nil), data[:SaltSize]...)
	iv := append([]byte(nil), data[SaltSize:SaltSize+IVSize]...)
	metaLen := binary.BigEndian.Uint32(data[SaltSize+IVSize : LegacyHeaderSize])

	rest := data[LegacyHeaderSize:]
	if metaLen > MaxMetadataSize {
		return nil, fmt.Errorf("%w: metadata length %d exceeds limit", ErrMalformedBundle, metaLen)
	}
	if uint64(metaLen) > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: metadata length %d exceeds remaining %d bytes", ErrMalformedBundle, metaLen, len(rest))
	}

	var meta Metadata
	if err := json.Unmarshal(rest[:metaLen], &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrMalformedBundle, err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}

	return &Bundle{
		Version:    VersionLegacy,
		Salt:       salt,
		IV:         iv,
		Metadata:   meta,
		Ciphertext: rest[metaLen:],
	}, nil
}
