package config

import "time"

// Storage engines.
const (
	EngineMemory  = "memory"
	EngineSharded = "sharded"
)

// Default configuration values.
const (
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultReadBufferSize = 4 * 1024
	DefaultWriteTimeout   = 30 * time.Second
	DefaultWriteQueueSize = 64
	DefaultIdleTimeout    = time.Duration(0)
	DefaultEventQueueSize = 256

	DefaultMetricsAddr = "127.0.0.1:9121"

	DefaultStorageEngine = EngineMemory
	DefaultShards        = 16

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				ReadBufferSize: DefaultReadBufferSize,
				WriteTimeout:   DefaultWriteTimeout,
				WriteQueueSize: DefaultWriteQueueSize,
				IdleTimeout:    DefaultIdleTimeout,
				EventQueueSize: DefaultEventQueueSize,
			},
			Metrics: MetricsConfig{
				Addr: DefaultMetricsAddr,
			},
		},
		Storage: StorageSection{
			Engine: DefaultStorageEngine,
			Shards: DefaultShards,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
