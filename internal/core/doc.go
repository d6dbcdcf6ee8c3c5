// Package core ties the key store, cipher engine and bundle codec together.
//
// Core operations include:
//   - Seal: encrypt a file under a stored key or a password into a bundle
//   - Open: authenticate and decrypt a bundle with a stored key or a password
//   - Inspect: read the clear metadata of a bundle without any key
//   - DiffBundle: compare the decrypted content of a bundle with a local file
//
// Every operation names its key explicitly through Credentials. Wrong keys,
// wrong passwords and tampered bundles all fail with crypto.ErrAuthFailed.
package core
