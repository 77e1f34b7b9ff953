// Package catalog 加载并持有音色目录：启动时拉取一次，之后只读。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/cache"
	"github.com/azhengyongqin/audiobook-hub/internal/metrics"
)

// Placeholder 目录不可用时选择框展示的唯一禁用项
const Placeholder = "Could not load voices"

// ErrEmptyCatalog 后端返回空列表
var ErrEmptyCatalog = errors.New("voice catalog is empty")

// Source 音色列表来源（转换后端）
type Source interface {
	ListVoices(ctx context.Context) ([]string, error)
}

// Option 目录选项
type Option func(*Catalog)

// WithCache 设置读穿缓存；key 区分不同后端
func WithCache(store cache.Store, key string, ttl time.Duration) Option {
	return func(c *Catalog) {
		c.store = store
		c.key = key
		c.ttl = ttl
	}
}

// WithLogger 设置日志器
func WithLogger(log zerolog.Logger) Option {
	return func(c *Catalog) { c.log = log }
}

// Catalog 音色目录
type Catalog struct {
	src   Source
	store cache.Store
	key   string
	ttl   time.Duration
	log   zerolog.Logger

	once   sync.Once
	mu     sync.RWMutex
	voices []string
	err    error
}

// New 创建目录
func New(src Source, opts ...Option) *Catalog {
	c := &Catalog{
		src: src,
		key: cache.CacheKey("voices"),
		log: zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load 拉取目录，只执行一次；后续调用返回第一次的结果
func (c *Catalog) Load(ctx context.Context) error {
	c.once.Do(func() {
		voices, err := c.fetch(ctx)
		c.mu.Lock()
		c.voices, c.err = voices, err
		c.mu.Unlock()
	})
	return c.Err()
}

func (c *Catalog) fetch(ctx context.Context) ([]string, error) {
	if c.store != nil {
		var cached []string
		err := c.store.Get(ctx, c.key, &cached)
		switch {
		case err == nil && len(cached) > 0:
			c.log.Debug().Int("count", len(cached)).Msg("音色目录命中缓存")
			return cached, nil
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			c.log.Warn().Err(err).Msg("读取音色缓存失败，回源后端")
		}
	}

	raw, err := c.src.ListVoices(ctx)
	if err != nil {
		metrics.RecordError("catalog", "fetch")
		c.log.Error().Err(err).Msg("加载音色目录失败")
		return nil, fmt.Errorf("load voices: %w", err)
	}

	// 目录只读，按后端返回的顺序原样保存
	voices := append([]string(nil), raw...)
	if len(voices) == 0 {
		metrics.RecordError("catalog", "empty")
		c.log.Warn().Msg("音色目录为空")
		return nil, ErrEmptyCatalog
	}

	if c.store != nil {
		if err := c.store.Set(ctx, c.key, voices, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("写入音色缓存失败")
		}
	}
	c.log.Info().Int("count", len(voices)).Msg("音色目录已加载")
	return voices, nil
}

// Err 加载错误；未加载或加载成功时为 nil
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Ready 目录已成功加载
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err == nil && len(c.voices) > 0
}

// Voices 目录副本（保持后端顺序）
func (c *Catalog) Voices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.voices...)
}

// Contains 音色是否在目录中
func (c *Catalog) Contains(voice string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if v == voice {
			return true
		}
	}
	return false
}

// Selector 音色选择框的展示状态
type Selector struct {
	Options  []string `json:"options"`
	Enabled  bool     `json:"enabled"`
	Selected string   `json:"selected,omitempty"`
}

// Selector 根据目录状态生成选择框；目录不可用时只有一个禁用的占位项
func (c *Catalog) Selector(selected string) Selector {
	if !c.Ready() {
		return Selector{Options: []string{Placeholder}}
	}
	return Selector{Options: c.Voices(), Enabled: true, Selected: selected}
}
