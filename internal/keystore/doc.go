// Package keystore manages the lifetime of symmetric keys on the local device.
//
// Keys are persisted as JSON Web Key text through a Backend: the bbolt key
// database, the OS keyring, or process memory. Key material never leaves
// the device and there is no notion of a current key; every call names
// the key id it operates on.
//
// A Store assumes a single logical writer. Concurrent Persist or Delete
// calls for the same id are not synchronized.
package keystore
