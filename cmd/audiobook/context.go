package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/cache"
	"github.com/azhengyongqin/audiobook-hub/internal/config"
	"github.com/azhengyongqin/audiobook-hub/internal/console"
	"github.com/azhengyongqin/audiobook-hub/internal/logger"
	"github.com/azhengyongqin/audiobook-hub/internal/preview"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

type globalFlags struct {
	envFile  string
	backend  string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := loadEnvFile(c.flags.envFile); err != nil {
			c.configErr = fmt.Errorf("load env file: %w", err)
			return
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.flags.backend); v != "" {
			cfg.Backend.URL = v
		}
		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			cfg.Log.Level = v
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		if err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}); err != nil {
			c.configErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loadEnvFile 显式指定时必须存在；否则按常见位置查找，找不到时只使用环境变量
func loadEnvFile(explicit string) error {
	if explicit != "" {
		return godotenv.Load(explicit)
	}
	for _, path := range []string{".env", "../.env", "../../.env"} {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return godotenv.Load(absPath)
		}
	}
	return nil
}

func (c *commandContext) newClient(cfg *config.Config) *sdk.Client {
	return sdk.NewClient(cfg.Backend.URL, sdk.WithTimeout(cfg.Backend.RequestTimeout))
}

// newStore 配置了 REDIS_URL 时使用共享缓存，否则使用进程内缓存
func (c *commandContext) newStore(cfg *config.Config) (cache.Store, func() error, *cache.RedisCache) {
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err == nil {
			return rc, rc.Close, rc
		}
		logger.Warn().Err(err).Msg("连接 Redis 失败，使用进程内缓存")
	}
	return cache.NewMemoryCache(cfg.Catalog.TTL, 10*time.Minute), func() error { return nil }, nil
}

type consoleBundle struct {
	console *console.Console
	client  *sdk.Client
	redis   *cache.RedisCache
	close   func()
}

func (c *commandContext) newConsole(cfg *config.Config, log zerolog.Logger) *consoleBundle {
	client := c.newClient(cfg)
	store, closeStore, redis := c.newStore(cfg)

	opts := console.Options{
		PollInterval: cfg.Poll.Interval,
		Retry: sdk.RetryConfig{
			MaxRetries:     cfg.Poll.MaxRetries,
			InitialBackoff: cfg.Poll.RetryBackoff,
			MaxBackoff:     10 * cfg.Poll.RetryBackoff,
			BackoffFactor:  2,
		},
		Cache:    store,
		CacheKey: cache.CacheKey("voices", cfg.Backend.URL),
		CacheTTL: cfg.Catalog.TTL,
		Logger:   log,
	}
	if sink := preview.ParseCommand(cfg.Player.Command); sink != nil {
		opts.AudioSink = sink
	}

	con := console.New(client, opts)
	return &consoleBundle{
		console: con,
		client:  client,
		redis:   redis,
		close: func() {
			con.Close()
			_ = closeStore()
			client.Close()
		},
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
