package keystore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/illarion/pdfseal/internal/crypto"
	"github.com/illarion/pdfseal/internal/logger"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrEmptyID         = errors.New("key id must not be empty")
	ErrListUnsupported = errors.New("backend cannot list keys")
)

// Store generates, serializes and persists keys
type Store struct {
	backend Backend
	log     *logger.Logger
}

// New returns a Store over backend. A nil log disables logging.
func New(backend Backend, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{backend: backend, log: log}
}

// GenerateKey creates a new random key.
// It fails only when the system random source is unavailable.
func (s *Store) GenerateKey() (*crypto.Key, error) {
	return crypto.GenerateKey()
}

// ExportKey serializes key as JSON Web Key text
func (s *Store) ExportKey(key *crypto.Key) (string, error) {
	return key.Export()
}

// ImportKey parses text produced by ExportKey
func (s *Store) ImportKey(text string) (*crypto.Key, error) {
	return crypto.ImportKey(text)
}

// GenerateID returns a fresh locally unique id. It is not derived from any key.
func (s *Store) GenerateID() string {
	return uuid.NewString()
}

// Persist stores key under id, replacing any key already stored there.
// key.ID is set to id.
func (s *Store) Persist(id string, key *crypto.Key) error {
	if id == "" {
		return ErrEmptyID
	}

	key.ID = id
	text, err := key.Export()
	if err != nil {
		return err
	}

	data := []byte(text)
	defer crypto.ClearBytes(data)

	if err := s.backend.Put(id, data); err != nil {
		return fmt.Errorf("failed to persist key %s: %w", id, err)
	}

	s.log.Debug().Str("key_id", id).Msg("key persisted")
	return nil
}

// Retrieve loads the key stored under id.
// An unknown id is a normal state: found is false and err is nil.
func (s *Store) Retrieve(id string) (*crypto.Key, bool, error) {
	if id == "" {
		return nil, false, ErrEmptyID
	}

	data, found, err := s.backend.Get(id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}
	defer crypto.ClearBytes(data)

	key, err := crypto.ImportKey(string(data))
	if err != nil {
		return nil, false, fmt.Errorf("stored key %s: %w", id, err)
	}
	key.ID = id

	return key, true, nil
}

// Get is Retrieve with absence reported as ErrKeyNotFound
func (s *Store) Get(id string) (*crypto.Key, error) {
	key, found, err := s.Retrieve(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	return key, nil
}

// Delete destroys the key stored under id. This is irreversible: bundles
// encrypted only under this key can no longer be decrypted.
func (s *Store) Delete(id string) error {
	if id == "" {
		return ErrEmptyID
	}

	data, found, err := s.backend.Get(id)
	if err != nil {
		return fmt.Errorf("failed to read key %s: %w", id, err)
	}
	crypto.ClearBytes(data)
	if !found {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}

	if err := s.backend.Delete(id); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", id, err)
	}

	s.log.Info().Str("key_id", id).Msg("key deleted")
	return nil
}

// List returns the ids of all persisted keys in sorted order
func (s *Store) List() ([]string, error) {
	lister, ok := s.backend.(Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	ids, err := lister.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
