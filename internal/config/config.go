package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Backend BackendConfig
	HTTP    HTTPConfig
	Poll    PollConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Log     LogConfig
	Player  PlayerConfig
}

// BackendConfig 转换后端配置
type BackendConfig struct {
	URL            string
	RequestTimeout time.Duration
}

// HTTPConfig 本地控制台 HTTP 服务配置
type HTTPConfig struct {
	Addr           string
	UploadMaxBytes int64
}

// PollConfig 状态轮询配置
type PollConfig struct {
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// RedisConfig Redis 配置（可选，用于共享音色目录缓存）
type RedisConfig struct {
	URL string
}

// CatalogConfig 音色目录配置
type CatalogConfig struct {
	TTL time.Duration
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string // console / json，为空时按终端自动选择
	File   string
}

// PlayerConfig 本地试听播放器配置
type PlayerConfig struct {
	Command string
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	// 允许从环境变量读取（优先级最高）
	v.AutomaticEnv()

	// 读取配置文件（如果存在）
	_ = v.ReadInConfig() // 忽略错误，因为可能只使用环境变量

	cfg := &Config{}

	// 后端配置
	cfg.Backend.URL = v.GetString("BACKEND_URL")
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = "http://127.0.0.1:8000"
	}
	cfg.Backend.RequestTimeout = v.GetDuration("REQUEST_TIMEOUT")
	if cfg.Backend.RequestTimeout == 0 {
		cfg.Backend.RequestTimeout = 30 * time.Second
	}

	// HTTP 配置
	cfg.HTTP.Addr = v.GetString("HTTP_ADDR")
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":28081"
	}
	cfg.HTTP.UploadMaxBytes = v.GetInt64("UPLOAD_MAX_BYTES")
	if cfg.HTTP.UploadMaxBytes == 0 {
		cfg.HTTP.UploadMaxBytes = 50 << 20
	}

	// 轮询配置
	cfg.Poll.Interval = v.GetDuration("POLL_INTERVAL")
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = 2 * time.Second
	}
	cfg.Poll.MaxRetries = v.GetInt("POLL_MAX_RETRIES")
	cfg.Poll.RetryBackoff = v.GetDuration("POLL_RETRY_BACKOFF")
	if cfg.Poll.RetryBackoff == 0 {
		cfg.Poll.RetryBackoff = 1 * time.Second
	}

	// Redis 配置
	cfg.Redis.URL = v.GetString("REDIS_URL")

	// 音色目录配置
	cfg.Catalog.TTL = v.GetDuration("CATALOG_TTL")
	if cfg.Catalog.TTL == 0 {
		cfg.Catalog.TTL = 1 * time.Hour
	}

	// 日志配置
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Log.File = v.GetString("LOG_FILE")

	// 播放器配置
	cfg.Player.Command = v.GetString("PLAYER_CMD")

	return cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend url %q must be an absolute http(s) url", c.Backend.URL)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Poll.MaxRetries < 0 {
		return fmt.Errorf("poll max retries must not be negative")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.HTTP.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
