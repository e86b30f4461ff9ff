package config

import "time"

// ServerConfig is the root configuration for kvcache-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the Redis protocol server.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// ReadBufferSize is the per-connection read chunk size in bytes.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// WriteTimeout bounds a single batch of replies.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// WriteQueueSize is how many reply batches may wait for a client
	// before it is disconnected as not reading.
	WriteQueueSize int `koanf:"write_queue_size"`

	// IdleTimeout closes silent connections. Zero keeps them open until
	// the client disconnects.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// EventQueueSize is the capacity of the event loop's queue.
	EventQueueSize int `koanf:"event_queue_size"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the HTTP listen address. Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// StorageSection configures the key-value store.
type StorageSection struct {
	// Engine is "memory" (single owner, no locks) or "sharded".
	Engine string `koanf:"engine"`

	// Shards is the shard count of the sharded engine, a power of two.
	Shards int `koanf:"shards"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
