package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"eshop/internal/storage"
)

// DefaultKey is the storage key holding the serialized cart.
const DefaultKey = "cart"

// Store persists the cart as a whole.
type Store interface {
	// Load returns the persisted items, or nil when nothing was saved yet.
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// KVStore keeps the cart as a JSON array under a single key of a storage.KV.
type KVStore struct {
	kv  storage.KV
	key string
}

// NewKVStore returns a Store writing to key in kv. An empty key means DefaultKey.
func NewKVStore(kv storage.KV, key string) *KVStore {
	if key == "" {
		key = DefaultKey
	}
	return &KVStore{kv: kv, key: key}
}

func (s *KVStore) Load(ctx context.Context) ([]Item, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("malformed cart under %q: %w", s.key, err)
	}
	return items, nil
}

func (s *KVStore) Save(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return s.kv.Set(ctx, s.key, raw)
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu    sync.Mutex
	items []Item
	saved bool
	Saves int
	Err   error // returned by Save when set
}

func (m *MemoryStore) Load(ctx context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, nil
	}
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.items = make([]Item, len(items))
	copy(m.items, items)
	m.saved = true
	m.Saves++
	return nil
}
