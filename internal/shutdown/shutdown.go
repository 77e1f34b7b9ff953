// Package shutdown 按注册的逆序执行关闭钩子。
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hook 关闭钩子
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Manager 优雅关闭管理器
type Manager struct {
	timeout time.Duration
	log     zerolog.Logger

	mu    sync.Mutex
	hooks []namedHook
}

// NewManager 创建优雅关闭管理器
func NewManager(timeout time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		log:     log,
	}
}

// AddHook 添加关闭钩子；后注册的先执行
func (m *Manager) AddHook(name string, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, fn: hook})
}

// Shutdown 执行优雅关闭。单个钩子失败不影响后续钩子，错误合并返回。
func (m *Manager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := make([]namedHook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	m.log.Info().Dur("timeout", m.timeout).Msg("开始优雅关闭")

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			m.log.Error().Err(err).Str("hook", h.name).Msg("关闭钩子执行失败")
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	m.log.Info().Msg("优雅关闭完成")
	return nil
}
