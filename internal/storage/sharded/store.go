package sharded

import (
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/kvcache/internal/storage"
)

// DefaultShardCount is used when the requested count is not a power of 2.
const DefaultShardCount = 16

// Store is a sharded, lock-protected storage.Store.
type Store struct {
	shards    []*shard
	shardMask uint32
	now       storage.Clock
	onExpire  storage.ExpireFunc
}

type shard struct {
	mu    sync.RWMutex
	items map[string]storage.Entry
}

var _ storage.Store = (*Store)(nil)

// New creates a store with DefaultShardCount shards.
func New(opts ...storage.Option) *Store {
	return NewWithShards(DefaultShardCount, opts...)
}

// NewWithShards creates a store with shardCount shards.
// shardCount must be a power of 2.
func NewWithShards(shardCount int, opts ...storage.Option) *Store {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	o := storage.BuildOptions(opts...)
	s := &Store{
		shards:    make([]*shard, shardCount),
		shardMask: uint32(shardCount - 1),
		now:       o.Clock,
		onExpire:  o.OnExpire,
	}
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]storage.Entry)}
	}
	return s
}

// ShardCount returns the number of shards.
func (s *Store) ShardCount() int {
	return len(s.shards)
}

func (s *Store) shardIndex(key string) uint32 {
	return murmur3.Sum32([]byte(key)) & s.shardMask
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[s.shardIndex(key)]
}

// Get returns the live value for key.
func (s *Store) Get(key string) (string, bool) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()
	if !ok {
		return "", false
	}

	now := s.now()
	if !e.IsExpired(now) {
		return e.Value, true
	}

	sh.mu.Lock()
	cur, ok := sh.items[key]
	removed := false
	if ok && cur.IsExpired(now) {
		delete(sh.items, key)
		removed = true
	}
	sh.mu.Unlock()

	if !removed {
		// Replaced between the two locks.
		if ok {
			return cur.Value, true
		}
		return "", false
	}
	if s.onExpire != nil {
		s.onExpire(key)
	}
	return "", false
}

// Set stores value under key.
func (s *Store) Set(key, value string, ttl time.Duration) {
	e := storage.NewEntry(value, ttl, s.now())
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = e
	sh.mu.Unlock()
}

// Remove deletes key.
func (s *Store) Remove(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.items[key]; !ok {
		return false
	}
	delete(sh.items, key)
	return true
}

// Len returns the total number of entries across shards.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}
