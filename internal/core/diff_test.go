package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextMimeType(t *testing.T) {
	tests := []struct {
		mimeType string
		text     bool
		known    bool
	}{
		{"text/plain", true, true},
		{"text/csv; charset=utf-8", true, true},
		{"application/json", true, true},
		{"application/ld+json", true, true},
		{"image/svg+xml", true, true},
		{"application/pdf", false, true},
		{"image/png", false, true},
		{DefaultMimeType, false, false},
		{"", false, false},
		{"not a type;;", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			text, known := TextMimeType(tt.mimeType)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestLooksLikeText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		text bool
	}{
		{"empty", nil, true},
		{"plain text", []byte("hello\nworld\n"), true},
		{"null byte", []byte("%PDF\x00binary"), false},
		{"invalid utf8", []byte{0xff, 0xfe, 0xfd}, false},
		{"control chars", []byte("\x01\x02\x03\x04abc"), false},
		{"unicode", []byte("привет, мир\n"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, LooksLikeText(tt.data))
		})
	}
}

func TestLooksLikeText_RuneAtSampleBoundary(t *testing.T) {
	data := []byte(strings.Repeat("a", TextSampleSize-1) + "ж" + "tail")
	assert.True(t, LooksLikeText(data))
}

func TestCompare_Identical(t *testing.T) {
	c := Compare("notes.txt", "text/plain", []byte("same\n"), []byte("same\n"))
	assert.True(t, c.Identical)
	assert.Equal(t, int64(-1), c.Offset)
	assert.Equal(t, c.BundleHash, c.LocalHash)
	assert.Empty(t, c.String())
}

func TestCompare_TextType(t *testing.T) {
	c := Compare("notes.txt", "text/plain", []byte("line1\nline2\n"), []byte("line1\nchanged\n"))
	require.True(t, c.Text)
	assert.Equal(t, int64(6), c.Offset)

	out := c.String()
	assert.Contains(t, out, "--- bundle/notes.txt")
	assert.Contains(t, out, "+++ local/notes.txt")
	assert.Contains(t, out, "-line2")
	assert.Contains(t, out, "+changed")
}

func TestCompare_PDFIsSummarized(t *testing.T) {
	// Text-looking PDF source still gets a binary summary
	bundleData := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	localData := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Pages >>\nendobj\n")

	c := Compare("contract.pdf", "application/pdf", bundleData, localData)
	assert.False(t, c.Text)
	assert.Empty(t, c.Patch)
	assert.Equal(t, int64(len("%PDF-1.7\n1 0 obj\n<< /Type /")), c.Offset)

	out := c.String()
	assert.Contains(t, out, "Binary file contract.pdf (application/pdf) has changed")
	assert.Contains(t, out, c.BundleHash)
	assert.Contains(t, out, c.LocalHash)
	assert.Contains(t, out, "first difference at byte 27")
}

func TestCompare_GenericTypeSniffsContent(t *testing.T) {
	c := Compare("notes", DefaultMimeType, []byte("a\nb\n"), []byte("a\nc\n"))
	assert.True(t, c.Text)

	c = Compare("blob", DefaultMimeType, []byte("a\x00b"), []byte("a\x00c"))
	assert.False(t, c.Text)
	assert.Equal(t, int64(2), c.Offset)
}

func TestCompare_TextTypeWithBinaryContent(t *testing.T) {
	c := Compare("notes.txt", "text/plain", []byte("a\x00b"), []byte("a\x00c"))
	assert.False(t, c.Text)
}

func TestCompare_PrefixOffset(t *testing.T) {
	c := Compare("img.png", "image/png", []byte{1, 2, 3}, []byte{1, 2, 3, 4})
	assert.Equal(t, int64(3), c.Offset)
	assert.Equal(t, int64(3), c.BundleSize)
	assert.Equal(t, int64(4), c.LocalSize)
}

func TestDiffBundle(t *testing.T) {
	s, keys := newTestSealer(t)
	id := persistKey(t, keys)

	content := []byte("alpha\nbeta\n")
	blob, err := s.SealWithKey(t.Context(), Source{
		Name:     "notes.txt",
		MimeType: "text/plain",
		Size:     int64(len(content)),
		Reader:   bytes.NewReader(content),
	}, id, nil)
	require.NoError(t, err)

	c, err := s.DiffBundle(t.Context(), blob, Credentials{KeyID: id}, []byte("alpha\nbeta\n"))
	require.NoError(t, err)
	assert.True(t, c.Identical)

	c, err = s.DiffBundle(t.Context(), blob, Credentials{KeyID: id}, []byte("alpha\ngamma\n"))
	require.NoError(t, err)
	assert.Contains(t, c.Patch, "-beta")
	assert.Contains(t, c.Patch, "+gamma")
}

func TestDiffBundle_PDF(t *testing.T) {
	s, keys := newTestSealer(t)
	id := persistKey(t, keys)

	blob, err := s.SealWithKey(t.Context(), source("contract.pdf", []byte("%PDF-1.4 v1")), id, nil)
	require.NoError(t, err)

	c, err := s.DiffBundle(t.Context(), blob, Credentials{KeyID: id}, []byte("%PDF-1.4 v2"))
	require.NoError(t, err)
	assert.False(t, c.Text)
	assert.Equal(t, "application/pdf", c.MimeType)
	assert.Equal(t, int64(10), c.Offset)
}
