package memory

import (
	"time"

	"github.com/yndnr/kvcache/internal/storage"
)

// Store is an unsynchronized map-backed storage.Store.
type Store struct {
	items    map[string]storage.Entry
	now      storage.Clock
	onExpire storage.ExpireFunc
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New(opts ...storage.Option) *Store {
	o := storage.BuildOptions(opts...)
	return &Store{
		items:    make(map[string]storage.Entry),
		now:      o.Clock,
		onExpire: o.OnExpire,
	}
}

// Get returns the value for key, removing it first if it has expired.
func (s *Store) Get(key string) (string, bool) {
	e, ok := s.items[key]
	if !ok {
		return "", false
	}
	if e.IsExpired(s.now()) {
		delete(s.items, key)
		if s.onExpire != nil {
			s.onExpire(key)
		}
		return "", false
	}
	return e.Value, true
}

// Set stores value under key, stamped with the current time.
func (s *Store) Set(key, value string, ttl time.Duration) {
	s.items[key] = storage.NewEntry(value, ttl, s.now())
}

// Remove deletes key.
func (s *Store) Remove(key string) bool {
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// Len returns the number of entries held, including not yet collected
// expired ones.
func (s *Store) Len() int {
	return len(s.items)
}

// Entry returns the raw entry for key without applying expiry.
func (s *Store) Entry(key string) (storage.Entry, bool) {
	e, ok := s.items[key]
	return e, ok
}
