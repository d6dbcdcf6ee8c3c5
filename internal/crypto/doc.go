// Package crypto provides the cryptographic primitives of pdfseal.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key, either random (GenerateKey) or password-derived (DeriveKey)
//   - 12-byte random nonce per Engine.Encrypt call
//   - 16-byte authentication tag appended to the ciphertext
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt (stored unencrypted in the bundle)
//   - 210,000 iterations, fixed so that a bundle never needs to record it
//
// Keys are exported as JSON Web Keys (kty "oct", alg "A256GCM").
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Key.Destroy() when done with a key
package crypto
