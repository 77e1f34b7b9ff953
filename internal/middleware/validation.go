package middleware

import (
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	// VoiceNameRegex 音色名称（字母数字下划线连字符点，1-64字符）
	VoiceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)
)

// PayloadSizeLimit Payload 大小限制中间件
func PayloadSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("Request body too large (max %d bytes).", maxSize),
			})
			c.Abort()
			return
		}
		// ContentLength 可能缺失（chunked），再由 MaxBytesReader 兜住
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// ValidateVoice 验证音色名称格式
func ValidateVoice(voice string) bool {
	return VoiceNameRegex.MatchString(voice)
}

// ValidatePDFName 上传文件必须是 .pdf
func ValidatePDFName(name string) bool {
	name = filepath.Base(name)
	return name != "." && strings.EqualFold(filepath.Ext(name), ".pdf") && len(name) > len(".pdf")
}

// SanitizeString 清理字符串（去除首尾空白与控制字符）
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)

	var builder strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// CORSMiddleware CORS 中间件（页面与控制台不同源时使用）
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
