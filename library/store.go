package library

import (
	"errors"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Write replaces one whole collection with Records.
type Write struct {
	Collection string
	Records    any
}

// Store persists the three collections. Load returns nil for a collection that
// was never saved. Save either applies the batch atomically or applies the
// writes one by one in the order given.
type Store interface {
	Load(collection string) ([]byte, error)
	Save(writes ...Write) error
	Close() error
}

func validCollection(name string) bool {
	switch name {
	case BooksCollection, MembersCollection, LoansCollection:
		return true
	}
	return false
}

func encodeWrite(w Write) ([]byte, error) {
	if !validCollection(w.Collection) {
		return nil, invalidInput("unknown collection %q", w.Collection)
	}
	data, err := json.Marshal(w.Records)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", w.Collection, err)
	}
	return data, nil
}

func loadCollection[T any](s Store, name string) ([]T, error) {
	data, err := s.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// ErrInjectedFault is returned by a MemoryStore once its write budget is spent.
var ErrInjectedFault = errors.New("injected storage fault")

// MemoryStore keeps encoded collections in memory. It is not transactional:
// writes are applied in order and a fault stops the batch where it occurred.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]byte
	failAfter   int // remaining successful writes before faulting; <0 disables
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]byte), failAfter: -1}
}

// FailAfter makes the store accept n more collection writes and fail every
// write after that, simulating a crash in the middle of a batch.
func (m *MemoryStore) FailAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
}

func (m *MemoryStore) Load(collection string) ([]byte, error) {
	if !validCollection(collection) {
		return nil, invalidInput("unknown collection %q", collection)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStore) Save(writes ...Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		data, err := encodeWrite(w)
		if err != nil {
			return err
		}
		if m.failAfter == 0 {
			return fmt.Errorf("save %s: %w", w.Collection, ErrInjectedFault)
		}
		if m.failAfter > 0 {
			m.failAfter--
		}
		m.collections[w.Collection] = data
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
