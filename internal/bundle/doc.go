// Package bundle encodes and decodes the pdfseal encrypted file container.
//
// A bundle is one opaque blob holding everything needed to attempt
// decryption except the key or password:
//
//	offset  size  field
//	0       4     "PDFS" magic            (Version1 only)
//	4       1     version byte            (Version1 only)
//	+0      16    salt (reserved even for key-encrypted bundles)
//	+16     12    GCM nonce
//	+28     4     metadata length, big-endian
//	+32     n     metadata JSON
//	+32+n   rest  ciphertext with 16-byte tag
//
// Bundles without the magic header (VersionLegacy) are still decoded.
package bundle
