// Package apperr 定义控制器的错误分类。
// 除 PartialCompletion 外，所有错误对其所在流程都是终态（不重试），
// 并通过唯一的错误横幅展示。
package apperr

import (
	"errors"
	"fmt"
)

// 默认展示文案
const (
	MsgSubmissionFailed = "Conversion failed to start."
	MsgStatusCheck      = "Error checking conversion status."
	MsgPreviewFailed    = "Failed to generate preview."
	MsgCatalogFailed    = "Failed to load voice list. Please try refreshing."
	MsgResultExpired    = "The audio file is no longer available."
)

// ValidationError 调用方可避免的输入缺失（文件 / 音色 / 文本）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// TransportError 请求未能完成（网络、超时、响应无法解析）
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerRejection 后端返回非成功响应，Detail 为可选的可读信息
type ServerRejection struct {
	StatusCode int
	Detail     string
	Fallback   string
}

func (e *ServerRejection) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Fallback != "" {
		return e.Fallback
	}
	return fmt.Sprintf("request rejected with status %d", e.StatusCode)
}

// SubmissionError 提交转换时的后端拒绝
type SubmissionError = ServerRejection

// TaskFailure 后端报告 status = failed
type TaskFailure struct {
	Message string
}

func (e *TaskFailure) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return "Conversion failed: " + msg
}

// PartialCompletion 任务完成但部分分片失败。这是警告而非错误，不阻断结果展示。
type PartialCompletion struct {
	TotalChunks      int
	SuccessfulChunks int
}

func (p PartialCompletion) FailedChunks() int {
	return p.TotalChunks - p.SuccessfulChunks
}

// Warning 警告横幅文案
func (p PartialCompletion) Warning() string {
	return fmt.Sprintf("Warning: Conversion finished, but %d out of %d text chunks failed to convert. The audiobook may be incomplete.",
		p.FailedChunks(), p.TotalChunks)
}

// PreviewError 试听失败（输入为空或后端拒绝）
type PreviewError struct {
	Reason string
	Err    error
}

func (e *PreviewError) Error() string {
	if e.Reason != "" {
		return MsgPreviewFailed + " " + e.Reason
	}
	return MsgPreviewFailed
}

func (e *PreviewError) Unwrap() error { return e.Err }

// Message 返回面向用户的横幅文案；无法识别的错误使用 fallback。
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		ve *ValidationError
		sr *ServerRejection
		tf *TaskFailure
		pe *PreviewError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &sr):
		if sr.Detail != "" {
			return sr.Detail
		}
	case errors.As(err, &tf):
		return tf.Error()
	case errors.As(err, &pe):
		return MsgPreviewFailed
	}
	return fallback
}
