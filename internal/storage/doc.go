// Package storage defines the cache key space.
//
// The Store interface is implemented by:
//
//   - memory: a plain map owned by a single goroutine (the server's
//     event loop). No locking.
//   - sharded: a murmur3-sharded map with per-shard locks, for callers
//     that touch the store from several goroutines.
//
// Entries carry an insertion time and an optional TTL. Expiry is lazy:
// an expired entry is removed the next time it is read.
package storage
