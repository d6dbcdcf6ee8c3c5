package keystore

// Backend is durable key-value storage for serialized keys.
// Last write wins; Get reports found == false for an unknown id.
type Backend interface {
	Put(id string, data []byte) error
	Get(id string) (data []byte, found bool, err error)
	Delete(id string) error
}

// Lister is implemented by backends that can enumerate stored ids
type Lister interface {
	List() ([]string, error)
}

// MemoryBackend keeps serialized keys in process memory.
// Contents are lost when the process exits.
type MemoryBackend struct {
	entries map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

func (m *MemoryBackend) Put(id string, data []byte) error {
	m.entries[id] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Get(id string) ([]byte, bool, error) {
	data, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryBackend) Delete(id string) error {
	if data, ok := m.entries[id]; ok {
		clear(data)
		delete(m.entries, id)
	}
	return nil
}

func (m *MemoryBackend) List() ([]string, error) {
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids, nil
}
