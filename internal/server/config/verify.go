package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/kvcache/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Redis.Addr == "" {
		return errors.New("server.redis.addr is required")
	}
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Redis.ReadBufferSize < 0 {
		return errors.New("server.redis.read_buffer_size must not be negative")
	}
	if cfg.Redis.WriteTimeout < 0 {
		return errors.New("server.redis.write_timeout must not be negative")
	}
	if cfg.Redis.WriteQueueSize < 0 {
		return errors.New("server.redis.write_queue_size must not be negative")
	}
	if cfg.Redis.IdleTimeout < 0 {
		return errors.New("server.redis.idle_timeout must not be negative")
	}
	if cfg.Redis.EventQueueSize < 0 {
		return errors.New("server.redis.event_queue_size must not be negative")
	}

	if cfg.Metrics.Addr != "" {
		if err := verifyAddr("server.metrics.addr", cfg.Metrics.Addr); err != nil {
			return err
		}
		if cfg.Metrics.Addr == cfg.Redis.Addr {
			return fmt.Errorf("server.metrics.addr conflicts with server.redis.addr (%s)", cfg.Redis.Addr)
		}
	}
	return nil
}

func verifyAddr(field, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", field, addr, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case EngineMemory:
	case EngineSharded:
		if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
			return fmt.Errorf("storage.shards must be a positive power of two, got %d", cfg.Shards)
		}
	default:
		return fmt.Errorf("storage.engine must be %q or %q, got %q", EngineMemory, EngineSharded, cfg.Engine)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
