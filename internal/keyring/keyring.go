package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const DefaultService = "pdfseal"

// indexUser holds the JSON list of stored key ids. The OS keyring
// cannot enumerate entries by itself.
const indexUser = "_pdfseal_index"

var ErrReservedID = errors.New("key id is reserved")

// Keyring stores serialized keys in the OS keyring, one entry per key id
type Keyring struct {
	service string
}

// New returns a Keyring using the given service name
func New(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

// Put stores data under id, replacing any previous value.
// If the index cannot be updated the entry is restored to its previous state.
func (k *Keyring) Put(id string, data []byte) error {
	if id == indexUser {
		return ErrReservedID
	}
	prev, existed, err := k.Get(id)
	if err != nil {
		return err
	}

	if err := keyring.Set(k.service, id, string(data)); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	if err := k.updateIndex(func(ids map[string]struct{}) { ids[id] = struct{}{} }); err != nil {
		return errors.Join(err, k.restore(id, prev, existed))
	}
	return nil
}

// Get retrieves data stored under id; found is false if there is none
func (k *Keyring) Get(id string) ([]byte, bool, error) {
	if id == indexUser {
		return nil, false, nil
	}
	secret, err := keyring.Get(k.service, id)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("keyring get: %w", err)
	}
	return []byte(secret), true, nil
}

// Delete removes the entry for id. Deleting an unknown id is a no-op.
// If the index cannot be updated the entry is put back.
func (k *Keyring) Delete(id string) error {
	if id == indexUser {
		return ErrReservedID
	}
	prev, existed, err := k.Get(id)
	if err != nil {
		return err
	}

	if existed {
		if err := keyring.Delete(k.service, id); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("keyring delete: %w", err)
		}
	}
	if err := k.updateIndex(func(ids map[string]struct{}) { delete(ids, id) }); err != nil {
		return errors.Join(err, k.restore(id, prev, existed))
	}
	return nil
}

// restore puts the entry for id back to prev, or removes it if it did not exist
func (k *Keyring) restore(id string, prev []byte, existed bool) error {
	if existed {
		if err := keyring.Set(k.service, id, string(prev)); err != nil {
			return fmt.Errorf("keyring restore: %w", err)
		}
		return nil
	}
	if err := keyring.Delete(k.service, id); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring restore: %w", err)
	}
	return nil
}

// List returns the stored key ids in sorted order
func (k *Keyring) List() ([]string, error) {
	ids, err := k.readIndex()
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)
	return list, nil
}

func (k *Keyring) readIndex() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	raw, err := keyring.Get(k.service, indexUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keyring index: %w", err)
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("keyring index is corrupt: %w", err)
	}
	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (k *Keyring) updateIndex(fn func(map[string]struct{})) error {
	ids, err := k.readIndex()
	if err != nil {
		return err
	}
	fn(ids)
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := keyring.Set(k.service, indexUser, string(raw)); err != nil {
		return fmt.Errorf("keyring index: %w", err)
	}
	return nil
}
