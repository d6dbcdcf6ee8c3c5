package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // Format version, timestamps
	KeysBucket   = []byte("keys")   // Serialized keys by key id
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
)

const (
	FilePermSecure = 0600
	DirPermSecure  = 0700
	openTimeout    = time.Second
)

var ErrEmptyID = errors.New("empty key id")

// Storage provides BBolt-based local key storage
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a key database, creating parent directories
// and the bucket structure as needed
func Open(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, DirPermSecure); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	initialized, err := s.IsInitialized()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !initialized {
		if err := s.Initialize(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// openDB opens a bolt file with the package defaults
var openDB = func(path string) (*bolt.DB, error) {
	return bolt.Open(path, FilePermSecure, &bolt.Options{Timeout: openTimeout})
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, KeysBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil && tx.Bucket(KeysBucket) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Put stores serialized key data under id, replacing any previous value
func (s *Storage) Put(id string, data []byte) error {
	if id == "" {
		return ErrEmptyID
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(KeysBucket).Put([]byte(id), data); err != nil {
			return err
		}
		return touch(tx)
	})
}

// Get retrieves serialized key data; found is false for an unknown id
func (s *Storage) Get(id string) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		keys := tx.Bucket(KeysBucket)
		if keys == nil {
			return fmt.Errorf("keys bucket not found")
		}
		if v := keys.Get([]byte(id)); v != nil {
			// Make a copy since the slice is only valid during the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, data != nil, nil
}

// Delete removes the data stored under id. Deleting an unknown id is a no-op.
func (s *Storage) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(KeysBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// List returns all stored key ids in byte order
func (s *Storage) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		keys := tx.Bucket(KeysBucket)
		if keys == nil {
			return nil
		}
		return keys.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// reopen opens path into s after Compact closed the handle and returns cause.
// If the reopen itself fails, that error is returned alongside cause.
func (s *Storage) reopen(path string, cause error) error {
	db, err := openDB(path)
	if err != nil {
		err = fmt.Errorf("failed to reopen database: %w", err)
		if cause != nil {
			return errors.Join(cause, err)
		}
		return err
	}
	s.db = db
	return cause
}

func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
}

// Compact rewrites the database into a fresh file, dropping free pages.
// Run after deleting keys so their bytes do not linger in unused pages.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := openDB(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})
	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		os.Remove(tmpPath)
		return s.reopen(srcPath, fmt.Errorf("failed to backup original: %w", err))
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		os.Remove(tmpPath)
		return s.reopen(srcPath, fmt.Errorf("failed to replace database: %w", err))
	}

	if err := s.reopen(srcPath, nil); err != nil {
		// The compacted file would not open; put the original back
		os.Remove(srcPath)
		os.Rename(backupPath, srcPath)
		return s.reopen(srcPath, err)
	}
	os.Remove(backupPath)

	return nil
}
