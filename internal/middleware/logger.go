package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/logger"
)

const (
	// MaxBodyLogSize 最大记录的请求/响应体大小（字节）
	MaxBodyLogSize = 4096
)

// responseWriter 包装 gin.ResponseWriter，统计响应大小并缓存较小的响应体。
// 音频响应（试听、结果下载）通常远大于 MaxBodyLogSize，只统计不缓存。
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
	size int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	if w.body.Len()+len(b) <= MaxBodyLogSize {
		w.body.Write(b)
	}
	return size, err
}

// LoggingMiddleware 记录请求日志
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 获取路径（优先使用路由模板）
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		// 只记录 JSON 请求体；multipart 上传是二进制文档，不进日志
		var requestBody string
		if c.Request.Body != nil && isJSON(c.ContentType()) {
			bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyLogSize+1))
			if err == nil {
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), c.Request.Body))
				if len(bodyBytes) > MaxBodyLogSize {
					requestBody = string(bodyBytes[:MaxBodyLogSize]) + "... (truncated)"
				} else {
					requestBody = string(bodyBytes)
				}
			}
		}

		blw := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = blw

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		var logEvent *zerolog.Event
		switch {
		case status >= 500:
			logEvent = logger.L.Error()
		case status >= 400:
			logEvent = logger.L.Warn()
		case strings.HasPrefix(path, "/api/v1/view"):
			// 浏览器每次轮询都会请求展示快照
			logEvent = logger.L.Debug()
		default:
			logEvent = logger.L.Info()
		}

		if requestID := GetRequestID(c); requestID != "" {
			logEvent = logEvent.Str("request_id", requestID)
		}
		logEvent = logEvent.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration(ms)", duration).
			Int("response_size", blw.size).
			Str("client_ip", c.ClientIP())

		if c.Request.URL.RawQuery != "" {
			logEvent = logEvent.Str("query", c.Request.URL.RawQuery)
		}
		if requestBody != "" {
			logEvent = logEvent.Str("request_body", requestBody)
		}
		if len(c.Errors) > 0 {
			logEvent = logEvent.Str("errors", c.Errors.String())
		}
		if status >= 500 && blw.body.Len() > 0 && isJSON(blw.Header().Get("Content-Type")) {
			logEvent = logEvent.Str("response_body", blw.body.String())
		}

		logEvent.Msg("HTTP 请求")
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

// GetRequestID 从上下文中获取请求 ID
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}
