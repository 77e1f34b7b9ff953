package sdk

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Document 待转换的文档。
// Open 每次调用都应返回一个新的读取器，便于同一文件重复提交。
type Document struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// BytesDocument 内存中的文档（例如 HTTP 上传）
func BytesDocument(name string, data []byte) Document {
	return Document{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileDocument 本地文件
func FileDocument(path string) Document {
	return Document{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// SubmitResponse 提交转换的响应
type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

// StatusResponse 任务状态查询响应
type StatusResponse struct {
	Status           TaskStatus `json:"status"`
	Progress         int        `json:"progress"`
	TotalChunks      *int       `json:"total_chunks,omitempty"`
	SuccessfulChunks *int       `json:"successful_chunks,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// PreviewRequest 试听请求
type PreviewRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}
