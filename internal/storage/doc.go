// Package storage provides the BBolt key database for pdfseal.
//
// Database structure uses two buckets:
//   - config: format version and timestamps
//   - keys: serialized keys (JSON Web Key text) by caller-chosen key id
//
// The database never leaves the device. Storage satisfies the key store
// backend contract directly (Put, Get, Delete, List).
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
