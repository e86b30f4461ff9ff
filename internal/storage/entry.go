package storage

import "time"

// Entry is a stored value with its insertion time and optional TTL.
type Entry struct {
	Value      string
	InsertedAt time.Time
	TTL        time.Duration
}

// NewEntry creates an entry inserted at now.
func NewEntry(value string, ttl time.Duration, now time.Time) Entry {
	if ttl < 0 {
		ttl = 0
	}
	return Entry{
		Value:      value,
		InsertedAt: now,
		TTL:        ttl,
	}
}

// HasTTL reports whether the entry can expire.
func (e Entry) HasTTL() bool {
	return e.TTL > 0
}

// ExpiresAt returns the instant the entry stops being visible.
// The zero time is returned for entries without TTL.
func (e Entry) ExpiresAt() time.Time {
	if !e.HasTTL() {
		return time.Time{}
	}
	return e.InsertedAt.Add(e.TTL)
}

// IsExpired reports whether the entry is logically absent at now.
func (e Entry) IsExpired(now time.Time) bool {
	if !e.HasTTL() {
		return false
	}
	return !now.Before(e.ExpiresAt())
}
