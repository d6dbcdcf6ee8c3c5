package bundle

import (
	"fmt"
	"unicode/utf8"
)

// Encryption method labels recorded in Metadata.Method
const (
	MethodKey      = "AES-256-GCM (key)"
	MethodPassword = "AES-256-GCM (password)"
)

// Metadata describes the original file of a bundle. It is stored in clear.
type Metadata struct {
	FileName string `json:"originalName"`
	MimeType string `json:"originalType"`
	Size     int64  `json:"originalSize"`
	Method   string `json:"encryptionMethod"`
}

// Validate checks the metadata for values no encoder produces
func (m Metadata) Validate() error {
	if m.Size < 0 {
		return fmt.Errorf("%w: negative original size %d", ErrInvalidField, m.Size)
	}
	if !utf8.ValidString(m.FileName) {
		return fmt.Errorf("%w: original name is not valid UTF-8", ErrInvalidField)
	}
	if !utf8.ValidString(m.MimeType) {
		return fmt.Errorf("%w: original type is not valid UTF-8", ErrInvalidField)
	}
	if !utf8.ValidString(m.Method) {
		return fmt.Errorf("%w: encryption method is not valid UTF-8", ErrInvalidField)
	}
	return nil
}

// UsesPassword reports whether the bundle was sealed with a password-derived key
func (m Metadata) UsesPassword() bool {
	return m.Method == MethodPassword
}
