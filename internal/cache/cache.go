package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = errors.New("cache miss")

// Store 缓存抽象：值以 JSON 形式保存
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheKey 生成缓存 key
func CacheKey(prefix string, parts ...string) string {
	key := "audiobookhub:" + prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
