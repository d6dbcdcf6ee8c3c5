package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/pdfseal/internal/crypto"
)

const (
	TextSampleSize   = 8192 // Bytes sniffed when the recorded type says nothing
	ControlCharLimit = 10   // Max % control chars in sniffed text
)

// Comparison describes how the content sealed in a bundle differs from a
// local file
type Comparison struct {
	Name       string
	MimeType   string
	BundleSize int64
	LocalSize  int64
	Identical  bool
	Text       bool   // a line diff was produced
	Offset     int64  // first differing byte, -1 when identical
	Patch      string // unified diff, text content only
	BundleHash string // hex SHA-256 of the sealed content
	LocalHash  string // hex SHA-256 of the local file
}

// String renders the comparison for a terminal
func (c *Comparison) String() string {
	if c.Identical {
		return ""
	}

	var b strings.Builder
	if c.Text {
		fmt.Fprintf(&b, "--- bundle/%s\n", c.Name)
		fmt.Fprintf(&b, "+++ local/%s\n", c.Name)
		b.WriteString(c.Patch)
		return b.String()
	}

	fmt.Fprintf(&b, "Binary file %s (%s) has changed\n", c.Name, c.MimeType)
	fmt.Fprintf(&b, "  bundle: %d bytes  sha256 %s\n", c.BundleSize, c.BundleHash)
	fmt.Fprintf(&b, "  local:  %d bytes  sha256 %s\n", c.LocalSize, c.LocalHash)
	fmt.Fprintf(&b, "  first difference at byte %d\n", c.Offset)
	return b.String()
}

// TextMimeType reports whether mimeType names line-oriented text. known is
// false for an empty or generic type, where only the content can tell.
func TextMimeType(mimeType string) (text, known bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil || mediaType == DefaultMimeType {
		return false, false
	}

	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true, true
	case strings.HasSuffix(mediaType, "+json"), strings.HasSuffix(mediaType, "+xml"):
		return true, true
	}

	switch mediaType {
	case "application/json", "application/xml", "application/javascript",
		"application/x-yaml", "application/yaml", "application/toml", "image/svg+xml":
		return true, true
	}
	return false, true
}

// LooksLikeText sniffs content: no NUL bytes, valid UTF-8 and few control
// characters in the leading sample
func LooksLikeText(data []byte) bool {
	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sample := data[:min(len(data), TextSampleSize)]

	// A multi-byte rune may be cut at the sample boundary
	if len(sample) < len(data) {
		for i := 0; i < utf8.UTFMax-1 && len(sample) > 0 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}
	if !utf8.Valid(sample) {
		return false
	}

	control := 0
	for _, b := range sample {
		if (b < 32 && b != '\t' && b != '\n' && b != '\r') || b == 127 {
			control++
		}
	}
	return control <= len(sample)*ControlCharLimit/100
}

// Compare compares sealed content with local content. The recorded MIME type
// decides between a line diff and a binary summary; content is sniffed only
// when the type is generic. A text type whose content is not UTF-8 text is
// still summarized as binary.
func Compare(name, mimeType string, bundleData, localData []byte) *Comparison {
	bundleSum := sha256.Sum256(bundleData)
	localSum := sha256.Sum256(localData)

	c := &Comparison{
		Name:       name,
		MimeType:   mimeType,
		BundleSize: int64(len(bundleData)),
		LocalSize:  int64(len(localData)),
		Offset:     -1,
		BundleHash: hex.EncodeToString(bundleSum[:]),
		LocalHash:  hex.EncodeToString(localSum[:]),
	}
	if crypto.ConstantTimeCompare(bundleSum[:], localSum[:]) {
		c.Identical = true
		return c
	}
	c.Offset = firstDifference(bundleData, localData)

	text, known := TextMimeType(mimeType)
	if !known || text {
		text = LooksLikeText(bundleData) && LooksLikeText(localData)
	}
	if !text {
		return c
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for readable hunks
	bundleStr, localStr := string(bundleData), string(localData)
	a, b, lineArray := dmp.DiffLinesToChars(bundleStr, localStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	c.Text = true
	c.Patch = dmp.PatchToText(dmp.PatchMake(bundleStr, diffs))
	return c
}

func firstDifference(a, b []byte) int64 {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int64(i)
		}
	}
	return int64(n)
}

// DiffBundle decrypts blob and compares its content with localData.
// The decrypted content is cleared before returning.
func (s *Sealer) DiffBundle(ctx context.Context, blob []byte, creds Credentials, localData []byte) (*Comparison, error) {
	opened, err := s.Open(ctx, blob, creds, nil)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(opened.Plaintext)

	name := opened.Metadata.FileName
	if name == "" {
		name = "content"
	}

	return Compare(name, opened.Metadata.MimeType, opened.Plaintext, localData), nil
}
