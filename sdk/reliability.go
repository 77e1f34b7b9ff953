package sdk

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig 请求重试配置
type RetryConfig struct {
	MaxRetries     int           // 最大重试次数，默认 0（失败即返回）
	InitialBackoff time.Duration // 初始退避时间，默认 1秒
	MaxBackoff     time.Duration // 最大退避时间，默认 10秒
	BackoffFactor  float64       // 退避因子，默认 2.0（指数退避）
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     0,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}
}

// Retry 带指数退避地执行 fn，直到成功、重试次数耗尽或 ctx 结束。
// onRetry 在每次失败后（准备重试前）被调用，可为 nil。
func Retry(ctx context.Context, config RetryConfig, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	var lastErr error
	backoff := config.InitialBackoff
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * config.BackoffFactor)
			if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < config.MaxRetries && onRetry != nil {
			onRetry(attempt+1, err)
		}
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("giving up after %d retries: %w", config.MaxRetries, lastErr)
}
