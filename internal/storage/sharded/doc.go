// Package sharded provides a concurrency-safe Store.
//
// Keys are spread over a power-of-two number of shards by murmur3 hash,
// each shard guarded by its own RWMutex. Expiry is lazy, like the memory
// store: a Get that finds an expired entry upgrades to the write lock and
// removes it, re-checking that a concurrent Set did not replace it.
package sharded
