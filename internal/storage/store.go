package storage

import "time"

// Store is the key space the command interpreter operates on.
//
// Implementations expire entries lazily: Get reports an expired entry as
// absent and removes it. There is no background sweep.
type Store interface {
	// Get returns the live value for key. An expired entry is removed
	// and reported as absent.
	Get(key string) (string, bool)

	// Set stores value under key, replacing any previous entry.
	// A zero ttl means the entry never expires.
	Set(key, value string, ttl time.Duration)

	// Remove deletes key and reports whether it was present.
	Remove(key string) bool

	// Len returns the number of stored entries, expired ones included
	// until they are next read.
	Len() int
}

// Clock returns the current time. time.Now carries a monotonic reading,
// which is what expiry comparisons use.
type Clock func() time.Time

// ExpireFunc is called with the key of every entry removed by lazy expiry.
type ExpireFunc func(key string)

// Options holds settings shared by Store implementations.
type Options struct {
	Clock    Clock
	OnExpire ExpireFunc
}

// Option configures a Store.
type Option func(*Options)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithOnExpire registers a callback for lazily expired keys.
func WithOnExpire(fn ExpireFunc) Option {
	return func(o *Options) {
		o.OnExpire = fn
	}
}

// BuildOptions applies opts over the defaults.
func BuildOptions(opts ...Option) Options {
	o := Options{Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
