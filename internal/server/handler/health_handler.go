package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/audiobook-hub/internal/healthcheck"
)

// CatalogStatus 音色目录是否已加载
type CatalogStatus interface {
	CatalogReady() bool
}

// HealthHandler 控制台健康检查
type HealthHandler struct {
	checker *healthcheck.HealthChecker
	catalog CatalogStatus
}

// NewHealthHandler 创建 HealthHandler；catalog 为 nil 时不报告目录状态
func NewHealthHandler(checker *healthcheck.HealthChecker, catalog CatalogStatus) *HealthHandler {
	return &HealthHandler{checker: checker, catalog: catalog}
}

// Liveness godoc
// @Summary Liveness 检查
// @Description 进程存活即返回 200，不访问转换后端
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.checker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	c.JSON(http.StatusOK, h.checker.LivenessCheck())
}

// Readiness godoc
// @Summary Readiness 检查
// @Description 通过 GET /api/voices 探测转换后端；配置 REDIS_URL 时再 PING 音色缓存。
// @Description 任一失败返回 503。checks.catalog 报告启动时的音色目录加载结果，目录不可用只降级，不影响就绪状态。
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.checker == nil {
		c.String(http.StatusOK, "ok")
		return
	}

	result := h.checker.ReadinessCheck(c.Request.Context())
	if h.catalog != nil {
		if h.catalog.CatalogReady() {
			result.Checks["catalog"] = "ok"
		} else {
			result.Checks["catalog"] = "degraded: voice list not loaded"
		}
	}

	status := http.StatusOK
	if result.Status == "error" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
