package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/azhengyongqin/audiobook-hub/internal/console"
	"github.com/azhengyongqin/audiobook-hub/internal/healthcheck"
	"github.com/azhengyongqin/audiobook-hub/internal/middleware"
	"github.com/azhengyongqin/audiobook-hub/internal/server/handler"
)

// DefaultUploadMaxBytes 默认上传大小上限（50MB）
const DefaultUploadMaxBytes = 50 << 20

type Deps struct {
	Console *console.Console

	// HealthChecker 健康检查器
	HealthChecker *healthcheck.HealthChecker

	// UploadMaxBytes 文档上传大小上限，默认 DefaultUploadMaxBytes
	UploadMaxBytes int64
}

// NewRouter 提供 Gin HTTP API
// @title Audiobook-Hub Console API
// @version 1.0.0
// @description 文档转有声书任务控制台 API
// @BasePath /api/v1
// @schemes http
func NewRouter(deps Deps) http.Handler {
	maxBytes := deps.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// 全局中间件
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())
	// multipart 编码开销留出 1MB 余量
	r.Use(middleware.PayloadSizeLimit(maxBytes + 1<<20))
	r.Use(middleware.CORSMiddleware())

	var catalogStatus handler.CatalogStatus
	if deps.Console != nil {
		catalogStatus = deps.Console
	}
	healthHandler := handler.NewHealthHandler(deps.HealthChecker, catalogStatus)
	consoleHandler := handler.NewConsoleHandler(deps.Console, maxBytes)

	// 健康检查路由
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Prometheus metrics 端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.GET("/voices", consoleHandler.ListVoices)
		api.PUT("/voice", consoleHandler.SelectVoice)
		api.GET("/view", consoleHandler.GetView)
		api.POST("/convert", consoleHandler.Convert)
		api.POST("/preview", consoleHandler.Preview)
		api.GET("/result", consoleHandler.GetResult)
	}

	return r
}
