package healthcheck

import (
	"context"
	"time"
)

// Pinger 依赖的连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker 健康检查器
type HealthChecker struct {
	backend Pinger
	redis   Pinger
	timeout time.Duration
}

// NewHealthChecker 创建健康检查器；redis 未配置时传 nil
func NewHealthChecker(backend, redis Pinger) *HealthChecker {
	return &HealthChecker{
		backend: backend,
		redis:   redis,
		timeout: 2 * time.Second,
	}
}

// CheckResult 健康检查结果
type CheckResult struct {
	Status  string            `json:"status"` // "ok" or "error"
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// LivenessCheck 存活检查（快速返回，不检查依赖）
func (h *HealthChecker) LivenessCheck() CheckResult {
	return CheckResult{
		Status: "ok",
		Checks: map[string]string{
			"service": "running",
		},
	}
}

// ReadinessCheck 就绪检查（检查转换后端与 Redis）
func (h *HealthChecker) ReadinessCheck(ctx context.Context) CheckResult {
	result := CheckResult{
		Checks: make(map[string]string),
	}

	h.check(ctx, &result, "backend", h.backend)
	h.check(ctx, &result, "redis", h.redis)

	// 如果所有检查都通过
	if result.Status == "" {
		result.Status = "ok"
	}

	return result
}

func (h *HealthChecker) check(ctx context.Context, result *CheckResult, name string, p Pinger) {
	if p == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		result.Checks[name] = "error: " + err.Error()
		result.Status = "error"
		return
	}
	result.Checks[name] = "ok"
}
