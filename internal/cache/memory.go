package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache 进程内缓存，未配置 Redis 时使用
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(defaultExpiration, cleanupInterval)}
}

// Set 以 JSON 保存，保证与 Redis 实现的取值语义一致（返回副本）
func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	m.c.Set(key, data, expiration)
	return nil
}

// Get 获取缓存
func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := m.c.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	data, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("unexpected cache value type %T", v)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cache data: %w", err)
	}
	return nil
}

// Delete 删除缓存
func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}
