package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvcache/internal/infra/buildinfo"
	"github.com/yndnr/kvcache/internal/infra/confloader"
	"github.com/yndnr/kvcache/internal/infra/shutdown"
	"github.com/yndnr/kvcache/internal/server/config"
	"github.com/yndnr/kvcache/internal/server/httpserver"
	"github.com/yndnr/kvcache/internal/server/redisserver"
	"github.com/yndnr/kvcache/internal/storage"
	"github.com/yndnr/kvcache/internal/storage/memory"
	"github.com/yndnr/kvcache/internal/storage/sharded"
	"github.com/yndnr/kvcache/internal/telemetry/logger"
	"github.com/yndnr/kvcache/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kvcache-server",
		Usage:   "in-memory key-value cache speaking the Redis protocol",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"KVCACHE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded into the environment before configuration",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Redis protocol listen address",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "HTTP listen address for /metrics, /healthz and /version (empty disables)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: json, text",
			},
			&cli.StringFlag{
				Name:  "storage-engine",
				Usage: "Store implementation: memory, sharded",
			},
		},
		Action: run,
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":           "server.redis.addr",
	"metrics-addr":   "server.metrics.addr",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"storage-engine": "storage.engine",
}

// overrides collects the flags the user set explicitly, so that unset
// flags do not mask file or environment values.
func overrides(c *cli.Context) map[string]any {
	values := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			values[key] = c.String(flag)
		}
	}
	return values
}

func run(c *cli.Context) error {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	configFile := c.String("config")
	flagValues := overrides(c)

	cfg, err := loadConfig(configFile, flagValues)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting kvcache-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	metrics := metric.NewRegistry(metric.NewCollector(metric.BuildInfo{
		Version:   info.Version,
		Commit:    info.Commit,
		GoVersion: info.GoVersion,
	}))

	store, err := newStore(cfg.Storage, slogLogger, metrics)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)
	ctx := shutdownHandler.Context()

	// Bind synchronously so that an unusable address fails startup.
	ln, err := net.Listen("tcp", cfg.Server.Redis.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Redis.Addr, err)
	}

	redisServer := redisserver.New(&redisserver.Config{
		Addr:           cfg.Server.Redis.Addr,
		ReadBufferSize: cfg.Server.Redis.ReadBufferSize,
		WriteTimeout:   cfg.Server.Redis.WriteTimeout,
		WriteQueueSize: cfg.Server.Redis.WriteQueueSize,
		IdleTimeout:    cfg.Server.Redis.IdleTimeout,
		EventQueueSize: cfg.Server.Redis.EventQueueSize,
	}, store,
		redisserver.WithLogger(slogLogger.With("component", "redis")),
		redisserver.WithMetrics(metrics),
	)

	var httpServer *httpserver.Server
	if cfg.Server.Metrics.Addr != "" {
		httpServer = httpserver.New(cfg.Server.Metrics.Addr,
			newRouter(redisServer, metrics, info, slogLogger.With("component", "http")))
		if err := httpServer.Listen(); err != nil {
			ln.Close()
			return err
		}
	}

	// Hooks run in reverse order of registration.
	if httpServer != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down HTTP server")
			return httpServer.Shutdown(ctx)
		})
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down Redis server")
		return redisServer.Shutdown(ctx)
	})

	if configFile != "" {
		watcher, err := watchConfig(configFile, flagValues, slogLogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		err := redisServer.Serve(ctx, ln)
		if err != nil && !errors.Is(err, redisserver.ErrServerClosed) {
			log.Error("Redis server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	if httpServer != nil {
		go func() {
			log.Info("HTTP server listening", "addr", httpServer.Addr().String())
			if err := httpServer.Serve(); err != nil {
				log.Error("HTTP server error", "error", err)
				shutdownHandler.Trigger()
			}
		}()
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// newRouter serves the operational endpoints. /healthz follows the Redis
// server's own serving state.
func newRouter(srv *redisserver.Server, metrics *metric.Registry, info buildinfo.Info, log *slog.Logger) http.Handler {
	return httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics: metrics,
		Ready:   srv.Serving,
		Build:   info,
		Logger:  log,
	})
}

// loadConfig loads configuration from defaults, file, environment and
// flag overrides, in that order.
func loadConfig(configFile string, flagValues map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(flagValues)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger creates the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// newStore builds the configured store. Lazily expired keys are counted
// and logged at debug level.
func newStore(cfg config.StorageSection, log *slog.Logger, metrics *metric.Registry) (storage.Store, error) {
	onExpire := storage.WithOnExpire(func(key string) {
		metrics.KeyExpired()
		log.Debug("key expired", "key", key)
	})

	switch cfg.Engine {
	case config.EngineMemory, "":
		return memory.New(onExpire), nil
	case config.EngineSharded:
		return sharded.NewWithShards(cfg.Shards, onExpire), nil
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}
}

// watchConfig reloads the config file on change and applies the new log
// level. Other settings take effect on restart.
func watchConfig(configFile string, flagValues map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(configFile, flagValues)
		if err != nil {
			log.Warn("config reload failed, keeping current settings", "path", path, "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload: invalid log level", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("config reloaded", "path", path, "log_level", logger.GetLevel())
	})
	watcher.StartAsync()
	return watcher, nil
}
