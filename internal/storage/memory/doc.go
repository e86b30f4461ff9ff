// Package memory provides the single-owner in-memory Store.
//
// Store is a plain map with no locking. It must only be used from one
// goroutine at a time; the Redis server's event loop is that goroutine.
// Use storage/sharded when several goroutines need the same key space.
package memory
