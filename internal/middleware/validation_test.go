package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVoice(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		want  bool
	}{
		{"simple", "alice", true},
		{"kokoro style", "af_heart", true},
		{"with dash and dot", "en-US.jenny", true},
		{"empty", "", false},
		{"spaces", "al ice", false},
		{"path traversal", "../etc", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateVoice(tt.voice))
		})
	}
}

func TestValidatePDFName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want bool
	}{
		{"pdf", "book.pdf", true},
		{"upper case", "BOOK.PDF", true},
		{"nested path", "dir/book.pdf", true},
		{"text file", "book.txt", false},
		{"bare extension", ".pdf", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePDFName(tt.file))
		})
	}
}

func TestPayloadSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		bodySize   int
		maxSize    int64
		wantStatus int
	}{
		{"within limit", 100, 1024, http.StatusOK},
		{"at limit", 1024, 1024, http.StatusOK},
		{"exceeds limit", 2048, 1024, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			body := bytes.Repeat([]byte("a"), tt.bodySize)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewReader(body))
			c.Request.ContentLength = int64(tt.bodySize)

			PayloadSizeLimit(tt.maxSize)(c)

			if tt.wantStatus == http.StatusOK {
				assert.False(t, c.IsAborted())
			} else {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatus, w.Code)
			}
		})
	}
}

func TestPayloadSizeLimit_UnknownLength(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PayloadSizeLimit(10))
	r.POST("/", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/", bytes.NewReader(bytes.Repeat([]byte("a"), 100)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"normal string", "hello world", "hello world"},
		{"with spaces", "  hello  ", "hello"},
		{"with control chars", "hello\x00world\x1F", "helloworld"},
		{"with newline", "hello\nworld", "helloworld"},
		{"unicode", "你好世界", "你好世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.input))
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	generated := w.Header().Get("X-Request-ID")
	require.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
